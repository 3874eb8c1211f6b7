package extract

import (
	"strings"
)

const extractionTemplate = `
You are an intelligent CV parser. Extract the following information from the provided resume text:

- Full name
- Email
- Education (degree, institution, year)
- Skills
- Experience (role, company, years)

Return the output in JSON format only, nothing else.

{format_instructions}

Resume text:
{text_chunks}
`

// FormatInstructions describes the expected JSON object, one line per field.
func FormatInstructions(fields []Field) string {
	var sb strings.Builder
	sb.WriteString("The output should be a markdown code snippet formatted in the following schema, including the leading and trailing \"```json\" and \"```\":\n\n")
	sb.WriteString("```json\n{\n")
	for _, f := range fields {
		sb.WriteString("\t\"")
		sb.WriteString(f.Name)
		sb.WriteString("\": ")
		sb.WriteString(f.Type)
		sb.WriteString("  // ")
		sb.WriteString(f.Description)
		sb.WriteString("\n")
	}
	sb.WriteString("}\n```")
	return sb.String()
}

// BuildPrompt embeds the chunks, joined by a single space, and the format
// instructions into the extraction template.
func BuildPrompt(chunks []string, fields []Field) string {
	r := strings.NewReplacer(
		"{format_instructions}", FormatInstructions(fields),
		"{text_chunks}", strings.Join(chunks, " "),
	)
	return r.Replace(extractionTemplate)
}
