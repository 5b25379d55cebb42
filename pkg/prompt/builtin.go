package prompt

import "fmt"

// System instructions sent alongside each prompt.
const (
	ImpactSystem = "You are an expert at creating impactful brag documents for software engineers. " +
		"Create specific, concrete, and detailed impact statements that precisely follow the requested format."
	ReflectionSystem = "You are an expert at creating impressive, detailed self-reflection documents for performance reviews. " +
		"You carefully analyze provided information to create compelling narratives that showcase specific " +
		"contributions and their impact, organized by project. You follow instructions exactly and create " +
		"substantive, impressive content."
)

const authoredTemplate = `Analyze this Pull Request that I authored and create an impact statement following the exact format shown below:

PR Title: {{title}}
PR URL: {{url}}
PR Description: {{description}}
Changed Files: {{changed_files}}
Additions: {{additions}}
Deletions: {{deletions}}

Your response must follow this exact format:

I shipped this {{url}} that [quick TLDR of the PR], which did the following:

- [Key bullet point about what the PR accomplished]
- [Another key bullet point]
- [Additional bullet point if needed]

This is impactful because:

- [Specific impact point]
- [Another impact point]
- [Additional impact point if relevant]

Here's an example of the format and depth I'm looking for:

I shipped this https://github.com/acme/storefront/pull/2821 that updates our handling of the payment provider's error messages for location mismatches, which did the following:

- Updated Error Parsing Logic: Adjusted our parsing logic to handle the new SDK error message for location mismatches, so the right UX messages are shown for the updated error format.
- Created Maintenance Issue: Documented the need to address location mismatches when payment collection fails as a separate issue in our maintenance cycle.
- Improved UX Messaging: Opened a follow-up to improve messaging for pre-existing reader location mismatches, matching what we show for currency mismatches.

This is impactful because:

- Ensured Correct Error Handling: The application now handles and displays the relevant error messages, keeping the user experience seamless.
- Proactive Maintenance: Tracking the remaining work as its own issue keeps it organized and prevents future disruptions.
- Enhanced User Experience: Clearer messaging for location mismatches gives users helpful feedback, consistent with our handling of currency mismatches.
`

const reviewedTemplate = `Analyze this Pull Request that I reviewed and create an impactful review statement:

PR Title: {{title}}
PR URL: {{url}}
PR Author: {{author}}
My Review Comments: {{review_comments}}

Your response must follow this exact format:

I provided key review for {{url}} that [brief description of the PR], where I contributed the following:

- [Specific contribution from your review]
- [Another specific contribution]
- [Additional contribution if relevant]

This review was impactful because:

- [Specific impact of your review]
- [Another impact point]
- [Additional impact if relevant]
`

const reflectionTemplate = `I'm going to provide you with a brag document that summarizes my contributions through PRs I've authored and reviewed.
Please create a compelling self-reflection document that maps these contributions to the leveling criteria below.

Here's the brag document content (please read this carefully and reference specific PRs in your analysis):
{{summary}}

Here are the leveling criteria:
{{criteria}}

For your self-reflection document, STRICTLY follow this format and guidance:

1. Start with a compelling, specific introduction about my impact during this period, naming the projects the PRs belong to.

2. Create a separate section for EACH project or area of work evident in the brag document.

3. Within each section:
   - Select the 3-4 MOST impressive PRs that demonstrate exceptional impact
   - Map each PR to a specific expectation from the leveling criteria
   - For each PR, explain IN DETAIL:
       * What technical challenge I solved
       * How I approached the solution
       * Why this approach demonstrates the specific expectation
       * The quantifiable impact this work had (user experience, performance, maintenance)
   - Use direct quotes from the brag doc where appropriate

4. Include a "Collaboration and Leadership" section drawing on the reviews I gave.

5. Include a "Beyond Requirements" section highlighting how I exceeded minimum expectations.

6. End with a forward-looking conclusion that summarizes my growth, highlights my most significant contributions, and names the areas I want to keep developing.

IMPORTANT:
- Be SPECIFIC, not generic - reference precise PRs and their outcomes
- Use CONCRETE examples from the brag doc, not vague statements
- Include PR links (using markdown format) when referencing specific PRs
- Structure should be clear with headers for each section and subsection

Format the document in markdown with clear headers, bullet points, and links to PRs where appropriate.
`

var builtins = map[Kind]string{
	KindAuthored:   authoredTemplate,
	KindReviewed:   reviewedTemplate,
	KindReflection: reflectionTemplate,
}

// Builtin returns the built-in template for kind. It panics for unknown kinds.
func Builtin(kind Kind) *Template {
	text, ok := builtins[kind]
	if !ok {
		panic(fmt.Sprintf("prompt: no built-in template for %q", kind))
	}
	t, err := Parse(kind, text)
	if err != nil {
		panic(err)
	}
	return t
}

// BuiltinText returns the source of the built-in template for kind.
func BuiltinText(kind Kind) string {
	return builtins[kind]
}
