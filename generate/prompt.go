package generate

import (
	"fmt"
	"strings"
)

const (
	defaultSkills     = "Beginner - just starting out"
	defaultExperience = "No prior experience"
)

const systemPrompt = `You are an expert career advisor and learning path designer. Your task is to create detailed, actionable learning roadmaps for software development careers.

When generating a roadmap, you MUST return a valid JSON object with this exact structure:
{
  "title": "Roadmap title",
  "description": "Brief description of the learning path",
  "nodes": [
    {
      "id": "unique_id",
      "label": "Topic Name",
      "description": "What you'll learn",
      "status": "active|locked|completed",
      "progress": 0,
      "resources": ["resource1", "resource2"]
    }
  ],
  "edges": [
    {"source": "id1", "target": "id2"}
  ]
}

Guidelines:
- Create 8-12 nodes for a comprehensive roadmap
- First 1-2 nodes should have status "active", rest should be "locked"
- All progress values should start at 0
- Edges should show logical dependencies between topics and must never form a cycle
- Resources should be real, useful learning resources
- Make the roadmap practical and job-focused`

// userPrompt renders the per-request prompt. Missing skills and experience
// fall back to a beginner profile.
func userPrompt(req Request) string {
	skills := defaultSkills
	if len(req.CurrentSkills) > 0 {
		skills = strings.Join(req.CurrentSkills, ", ")
	}
	experience := defaultExperience
	if e := strings.TrimSpace(req.ExperienceLevel); e != "" {
		experience = e
	}

	return fmt.Sprintf(`Create a personalized learning roadmap for someone who wants to: %s

Current skills: %s
Experience level: %s

Generate a comprehensive roadmap that takes them from their current level to being job-ready.
Return ONLY the JSON object, no additional text.`, strings.TrimSpace(req.LearningGoal), skills, experience)
}
