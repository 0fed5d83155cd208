package roadmap

// Presentation is how a status is drawn: node affordances, badge, the
// action offered in the detail panel and the minimap colour.
type Presentation struct {
	Status       Status  `json:"status"`
	Badge        string  `json:"badge"`
	Icon         string  `json:"icon"`
	Opacity      float64 `json:"opacity"`
	Pulsing      bool    `json:"pulsing"`
	Action       string  `json:"action,omitempty"`
	ShowProgress bool    `json:"show_progress"`
	MinimapColor string  `json:"minimap_color"`
}

const (
	ActionContinue = "continue"
	ActionReview   = "review"
)

// PresentationFor derives the rendering of a status. Unknown statuses are
// drawn like locked modules.
func PresentationFor(s Status) Presentation {
	switch s {
	case StatusCompleted:
		return Presentation{
			Status:       StatusCompleted,
			Badge:        "Completed",
			Icon:         "check",
			Opacity:      1,
			Action:       ActionReview,
			ShowProgress: true,
			MinimapColor: "hsl(var(--success))",
		}
	case StatusActive:
		return Presentation{
			Status:       StatusActive,
			Badge:        "In Progress",
			Icon:         "play",
			Opacity:      1,
			Pulsing:      true,
			Action:       ActionContinue,
			ShowProgress: true,
			MinimapColor: "hsl(var(--primary))",
		}
	default:
		return Presentation{
			Status:       StatusLocked,
			Badge:        "Locked",
			Icon:         "lock",
			Opacity:      0.6,
			MinimapColor: "hsl(var(--muted))",
		}
	}
}

// Legend lists the presentations in the order the canvas legend shows them.
func Legend() []Presentation {
	return []Presentation{
		PresentationFor(StatusCompleted),
		PresentationFor(StatusActive),
		PresentationFor(StatusLocked),
	}
}
