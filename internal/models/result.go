package models

// QuestionDetail is one row of the per-question breakdown shown after
// submission.
type QuestionDetail struct {
	QuestionIndex  int          `json:"question_index"`
	QuestionType   QuestionType `json:"question_type"`
	Question       string       `json:"question"`
	UserAnswer     string       `json:"user_answer"`
	CorrectAnswer  string       `json:"correct_answer"`
	EarnedPoints   float64      `json:"earned_points"`
	MaxPoints      float64      `json:"max_points"`
	IsFullyCorrect bool         `json:"is_fully_correct"`
	PartialCredit  bool         `json:"partial_credit"`
}

// QuizResult is derived from an attempt's answers and never stored on its own.
// ScorePercent is rounded for reporting; Passed was decided on the exact value.
type QuizResult struct {
	TotalQuestions           int              `json:"total_questions"`
	TotalPoints              float64          `json:"total_points"`
	EarnedPoints             float64          `json:"earned_points"`
	ScorePercent             float64          `json:"score"`
	Passed                   bool             `json:"passed"`
	PassingScore             int              `json:"passing_score"`
	CorrectFullQuestionCount int              `json:"correct_answers"`
	PerQuestionDetail        []QuestionDetail `json:"detailed_results"`
	TimeTaken                *int             `json:"time_taken,omitempty"`
	ShowAnswers              bool             `json:"show_answers"`
}

type StartAttemptResponse struct {
	AttemptID        string `json:"attempt_id"`
	TotalQuestions   int    `json:"total_questions"`
	TimeLimitMinutes int    `json:"time_limit_minutes"`
	QuestionIndices  []int  `json:"question_indices"`
}

type QuizSettings struct {
	QuizID             uint   `json:"quiz_id"`
	Title              string `json:"title"`
	TimeLimitMinutes   int    `json:"time_limit"`
	PassingScore       int    `json:"passing_score"`
	QuestionsToShow    int    `json:"min_questions_to_show"`
	TotalQuestions     int    `json:"total_questions"`
	RandomizeQuestions bool   `json:"randomize_questions"`
	ShowResults        bool   `json:"show_results_immediately"`
}

type QuizStats struct {
	QuizID            uint    `json:"quiz_id"`
	TotalAttempts     int64   `json:"total_attempts"`
	CompletedAttempts int64   `json:"completed_attempts"`
	PassedAttempts    int64   `json:"passed_attempts"`
	FailedAttempts    int64   `json:"failed_attempts"`
	AbandonedAttempts int64   `json:"abandoned_attempts"`
	AverageScore      float64 `json:"average_score"`
	HighestScore      float64 `json:"highest_score"`
	LowestScore       float64 `json:"lowest_score"`
	AverageTimeSpent  float64 `json:"average_time_spent"`
	PassRate          float64 `json:"pass_rate"`
}

type DifficultQuestion struct {
	QuestionIndex int     `json:"question_index"`
	QuestionType  string  `json:"question_type"`
	TotalAnswers  int64   `json:"total_answers"`
	CorrectCount  int64   `json:"correct_count"`
	SuccessRate   float64 `json:"success_rate"`
}
