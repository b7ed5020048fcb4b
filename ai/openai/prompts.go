package openai

const tripletPromptTemplate = `Extract semantic triplets (Subject, Predicate, Object) from the following text.
Return ONLY a JSON list of objects with "subject", "predicate", and "object" keys.
Do not include any explanation or markdown formatting (like ` + "```json" + `).

Text: %s`

const sqlPromptTemplate = `Extract all SQL queries from the following text. For each query, provide:
- The exact SQL query text
- Query type (SELECT, INSERT, UPDATE, DELETE, CREATE, ALTER, DROP, etc.)
- List of tables involved
- List of columns referenced (if any)
- Join relationships if present (list of joins with from_table, to_table, join_condition)

Return the result as a JSON list of objects with keys: "sql_query", "query_type", "tables", "columns", "joins".
If no SQL queries found, return an empty list.

Text: %s`

const entityPromptTemplate = `Extract the most important specific entities from the following query.
Look for:
- People (e.g., Sarah Singh)
- Identifiers (e.g., P20, V72, D1)
- Medications (e.g., Tamoxifen)
- Conditions (e.g., Type 2 Diabetes)

Return ONLY a comma-separated list of names or IDs. No extra text.
Query: %s`
