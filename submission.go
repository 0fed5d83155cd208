package roadmap

import "time"

// Submission is one run of the practice sandbox, kept as history.
type Submission struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ProblemID     string    `json:"problem_id,omitempty"`
	Language      string    `json:"language"`
	LanguageID    int       `json:"language_id"`
	SourceCode    string    `json:"source_code"`
	Status        string    `json:"status"`
	Stdout        *string   `json:"stdout"`
	Stderr        *string   `json:"stderr"`
	CompileOutput *string   `json:"compile_output"`
	TimeMs        *int      `json:"time_ms"`
	MemoryKb      *int      `json:"memory_kb"`
	CreatedAt     time.Time `json:"created_at"`
}
