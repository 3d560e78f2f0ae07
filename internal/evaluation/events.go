package evaluation

// Event names on the duplex channel. These match the browser client and must
// not change without coordinating both sides.
const (
	EventEvaluationStarted   = "evaluation_started"
	EventProgressUpdate      = "progress_update"
	EventSummarizeRequest    = "summarize_request"
	EventArticleCompleted    = "article_completed"
	EventEvaluationCompleted = "evaluation_completed"
	EventLogUpdate           = "log_update"
)

// Emitter delivers server-to-client events for one session. Implemented by
// the websocket hub; a session with no connected client drops events.
type Emitter interface {
	Emit(sessionID, event string, payload interface{})
}

type startedPayload struct {
	TotalArticles int    `json:"total_articles"`
	TotalItems    int    `json:"total_items"`
	Dataset       string `json:"dataset"`
}

type progressPayload struct {
	Current   int `json:"current"`
	Total     int `json:"total"`
	ArticleID int `json:"article_id"`
}

type summarizeRequestPayload struct {
	RequestID     string `json:"request_id"`
	ArticleID     int    `json:"article_id"`
	Text          string `json:"text"`
	Configuration string `json:"configuration"`
}

type completedPayload struct {
	TotalResults int         `json:"total_results"`
	Results      interface{} `json:"results"`
}

type logPayload struct {
	Message string `json:"message"`
}
