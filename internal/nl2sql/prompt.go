package nl2sql

import "fmt"

// The schema context already ends with the dialect requirements, so the
// initial prompt does not repeat them; the correction prompt states them a
// second time after the diagnostic to keep them close to the repair task.
const initialPromptFormat = `You are a PostgreSQL expert. Given the following database schema and a user's question, generate a valid PostgreSQL query.

%s

User Question: %s

Generate ONLY the SQL query:`

const correctionPromptFormat = `You are a PostgreSQL expert assisting a developer. Your previous query failed.

**DATABASE SCHEMA CONTEXT:**
%s

**ORIGINAL USER QUESTION:** %s

**FAILING QUERY:**
` + "```sql\n%s\n```" + `

**POSTGRESQL ERROR MESSAGE:**
%s

**TASK:** Analyze the error message and generate a corrected PostgreSQL query.

%s

Generate ONLY the corrected SQL query:`

func buildPrompt(schemaContext, dialectRules string, req Request) string {
	if req.IsCorrection() {
		return fmt.Sprintf(correctionPromptFormat, schemaContext, req.Question, req.PriorSQL, req.PriorError, dialectRules)
	}
	return fmt.Sprintf(initialPromptFormat, schemaContext, req.Question)
}
