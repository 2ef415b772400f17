package upstream

// Entry is the result of registering a subject with the certified exam API.
type Entry struct {
	SkillID     int    `json:"skill_id"`
	SubjectName string `json:"subject_name"`
	QuizStatus  string `json:"quiz_status"`
	IsPaid      bool   `json:"is_paid"`
}

// QuizItem is one question as the certified exam API returns it. Scenario and
// code fields are optional and only populated for some subjects.
type QuizItem struct {
	ID            int    `json:"id"`
	Question      string `json:"question"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectAnswer string `json:"correct_answer"`
	ScenarioTitle string `json:"scenario_title"`
	TextContext   string `json:"text_context"`
	CodeImage     string `json:"code_image"`
	CodeMarkdown  string `json:"code_markdown"`
	CodeText      string `json:"code_text"`
}

// GeneratedQuizPayload is the raw generation response, bucketed by difficulty
// tier. The upstream generator is eventually consistent: any tier may be empty
// or short on a given call, and the same call repeated later may return more.
type GeneratedQuizPayload struct {
	Easy   []QuizItem `json:"easy"`
	Medium []QuizItem `json:"medium"`
	Hard   []QuizItem `json:"hard"`
}

// Attempt is one answered question in the final submission array.
type Attempt struct {
	ItemID  int    `json:"id"`
	Answer  string `json:"answer"`
	Correct bool   `json:"correct"`
}

type ContinueResult struct {
	Token string `json:"token"`
}

type OrderResult struct {
	OrderID string `json:"order_id"`
}
