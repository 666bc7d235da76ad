package testutil

// Canned wire bodies used across tests.

// HistoryJSON is a stored history blob with two sessions in the current
// format.
const HistoryJSON = `[
  {
    "sessionId": "local-aaa",
    "title": "Total spend in March",
    "turns": [
      {
        "question": "Total spend in March",
        "answer": "You spent $1,204.",
        "sql": "SELECT SUM(amount) FROM txns WHERE month = 3",
        "rows": [{"sum": 1204}]
      }
    ],
    "createdAt": "2026-03-01T10:00:00Z",
    "updatedAt": "2026-03-01T10:00:05Z"
  },
  {
    "sessionId": "local-bbb",
    "title": "Top merchants",
    "turns": [
      {"question": "Top merchants", "answer": "Acme leads.", "rows": []}
    ],
    "createdAt": "2026-03-02T09:00:00Z",
    "updatedAt": "2026-03-02T09:00:09Z"
  }
]`

// LegacyHistoryJSON is the pre-session flat-turn format that must migrate on
// load.
const LegacyHistoryJSON = `[
  {
    "question": "How much did I spend on coffee?",
    "answer": "$87 this month.",
    "sql": "SELECT SUM(amount) FROM txns WHERE category = 'coffee'",
    "rows": [{"sum": 87}],
    "conversationId": "legacy-1"
  },
  {
    "question": "And groceries?",
    "answer": "$412.",
    "rows": []
  }
]`

// ConversationListJSON is a two-entry server conversation directory.
const ConversationListJSON = `[
  {"id": "c-1", "title": "Spending review", "updated_at": "2026-04-01T12:00:00Z"},
  {"id": "c-2", "title": "Budget check", "updated_at": "2026-04-02T08:30:00Z"}
]`

// ConversationDetailJSON is the message history of conversation c-1,
// including an assistant turn with SQL, rows, and a chart spec.
const ConversationDetailJSON = `{
  "id": "c-1",
  "title": "Spending review",
  "messages": [
    {"id": 1, "role": "user", "content": "Plot my spending by month", "created_at": "2026-04-01T11:59:00Z"},
    {
      "id": 2,
      "role": "assistant",
      "content": "Here is your spending by month.",
      "sql": "SELECT month, SUM(amount) FROM txns GROUP BY month",
      "rows": [{"month": 1, "sum": 900}, {"month": 2, "sum": 1100}],
      "metadata": {"chart_json": "{\"type\": \"bar\"}"},
      "created_at": "2026-04-01T12:00:00Z"
    }
  ]
}`
