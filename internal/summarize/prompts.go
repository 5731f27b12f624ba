package summarize

import (
	"fmt"
	"strings"

	"digest/internal/models"
)

// basePrompt is the digest system prompt: five bullets, JSON only.
const basePrompt = `You are an expert chat conversation summarizer.

Your task is to analyze team chat messages and create concise, actionable digests.

CORE RULES:
- Return exactly 5 bullet points
- Each bullet must be <=30 words
- Focus on key decisions, updates, issues, and action items
- Use clear, professional language
- Maintain context about who said what when relevant

RESPONSE FORMAT:
Return ONLY valid JSON in this exact schema:
{"bullets":[{"text":"bullet content","link":""},...]}

ANALYSIS PRIORITIES:
1. Decisions made or needed
2. Technical updates or issues
3. Project progress or blockers
4. Action items or deadlines
5. Important announcements`

// issueBasePrompt is the system prompt for issue-focused digests.
const issueBasePrompt = `You are an expert technical issue analyzer for hardware and software engineering teams.

Your task is to analyze messages that potentially contain technical issues, bugs, or problems and create actionable summaries.

FOCUS AREAS:
1. Issue identification and classification
2. Problem severity and impact assessment
3. Root cause analysis hints
4. Resolution progress tracking
5. Related discussions and follow-ups

CORE RULES:
- Return exactly 6 bullet points focused on technical issues
- Each bullet must be <=40 words
- Classify issues by type (bug, failure, performance, etc.)
- Highlight critical/blocking issues
- Track resolution attempts and outcomes

RESPONSE FORMAT:
Return ONLY valid JSON in this exact schema:
{"bullets":[{"text":"bullet content","link":""},...]}

ANALYSIS PRIORITIES FOR ISSUE TRACKING:
1. New issues and problem reports
2. Investigation progress and findings
3. Attempted solutions and results
4. Cross-team coordination for fixes
5. Resolution confirmations and testing
6. Related issues and patterns`

// combinedPrompt appends a user's custom prompt to a base prompt.
func combinedPrompt(base, custom string) string {
	if custom == "" {
		return base
	}
	return base + `

ADDITIONAL CONTEXT & CUSTOMIZATION:
` + custom + `

Apply the above customization while maintaining the core response format and rules.`
}

// projectPrompt builds the system prompt for a multi-channel project digest.
func projectPrompt(project string, channels []string, custom string) string {
	tagged := make([]string, len(channels))
	for i, ch := range channels {
		tagged[i] = "#" + ch
	}

	base := fmt.Sprintf(`You are analyzing messages for PROJECT: %s across multiple chat channels.

CONTEXT: These messages come from %d different channels: %s

Your task is to create a PROJECT-FOCUSED digest that shows:
1. Cross-team coordination and dependencies
2. Project milestones, progress, and blockers
3. Technical decisions affecting the project
4. Resource needs or bottlenecks
5. Timeline updates or schedule changes

CORE RULES:
- Return exactly 6 bullet points (one extra for project overview)
- Each bullet must be <=35 words
- Include channel context when relevant (e.g., "[#hardware] PCB design approved")
- Focus on project impact, not individual tasks
- Highlight cross-team dependencies and coordination

RESPONSE FORMAT:
Return ONLY valid JSON in this exact schema:
{"bullets":[{"text":"bullet content","link":""},...]}

ANALYSIS PRIORITIES FOR PROJECT TRACKING:
1. Project status and milestone progress
2. Cross-team dependencies and coordination
3. Technical decisions and design changes
4. Resource allocation and bottlenecks
5. Schedule updates and deadline changes
6. Risk identification and mitigation`, project, len(channels), strings.Join(tagged, ", "))

	return combinedPrompt(base, custom)
}

// issueContext formats detected-issue metadata appended to the user
// message of an issue digest: the union of detected types and the set
// of priorities seen.
func issueContext(detected []models.CandidateIssue) string {
	if len(detected) == 0 {
		return ""
	}

	typeSet := make(map[models.IssueType]struct{})
	prioritySet := make(map[models.IssuePriority]struct{})
	for _, c := range detected {
		for _, t := range c.Types {
			typeSet[t] = struct{}{}
		}
		prioritySet[c.Priority] = struct{}{}
	}

	var types []string
	for _, t := range []models.IssueType{
		models.IssueTypeBug, models.IssueTypeFailure, models.IssueTypeProblem,
		models.IssueTypeMalfunction, models.IssueTypePerformance, models.IssueTypeCritical,
		models.IssueTypeRegression, models.IssueTypeHardware, models.IssueTypeFirmware,
	} {
		if _, ok := typeSet[t]; ok {
			types = append(types, string(t))
		}
	}
	var priorities []string
	for _, p := range models.Priorities() {
		if _, ok := prioritySet[p]; ok {
			priorities = append(priorities, string(p))
		}
	}

	return fmt.Sprintf("\n\nDETECTED ISSUE CONTEXT:\n- Issue types found: %s\n- Priority levels: %s",
		strings.Join(types, ", "), strings.Join(priorities, ", "))
}
