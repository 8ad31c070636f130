// Package mission holds the static ten-week mission catalog. The catalog is
// immutable for the lifetime of the process; everything else in the system
// keys off these ids and canonical goal texts.
package mission

const (
	ResourceLink = "link"
	ResourceTip  = "tip"
)

type Resource struct {
	Type    string `json:"type"` // ResourceLink or ResourceTip
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Content string `json:"content,omitempty"`
}

type Mission struct {
	ID             int        `json:"id"`
	Week           int        `json:"week"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	SuggestedGoals []string   `json:"suggested_goals"`
	Resources      []Resource `json:"resources,omitempty"`
	ChallengeTips  []string   `json:"challenge_tips,omitempty"`
}

// Get returns the mission with the given id.
func Get(id int) (Mission, bool) {
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
	}
	return Mission{}, false
}

// All returns the catalog in week order. Callers must not mutate the result.
func All() []Mission {
	return catalog
}

var catalog = []Mission{
	{
		ID:          1,
		Week:        1,
		Title:       "Resolution Tracker",
		Description: "Build a system to set, monitor, and achieve your goals throughout the year.",
		SuggestedGoals: []string{
			"Design the goal tracking system architecture",
			"Implement natural language processing for updates",
			"Create progress visualization dashboard",
			"Add intelligent feedback system",
		},
		Resources: []Resource{
			{Type: "link", Title: "Claude API Documentation", URL: "https://docs.anthropic.com/en/docs"},
			{Type: "link", Title: "React State Management Guide", URL: "https://react.dev/learn/managing-state"},
			{Type: "tip", Content: "Start with a simple data structure for goals before adding NLP complexity"},
			{Type: "tip", Content: "Use localStorage for quick prototyping before integrating a database"},
		},
		ChallengeTips: []string{
			"Break down NLP processing into extraction, matching, and state update steps",
			"Test fuzzy matching with various phrasings of the same goal",
			"Consider using progress percentages to motivate users",
		},
	},
	{
		ID:          2,
		Week:        2,
		Title:       "Model Mapping",
		Description: "Learn to map and compare different AI models and their capabilities.",
		SuggestedGoals: []string{
			"Research major AI model families",
			"Create comparison framework",
			"Document strengths and weaknesses",
			"Build model selection guide",
		},
		Resources: []Resource{
			{Type: "link", Title: "Anthropic Model Overview", URL: "https://docs.anthropic.com/en/docs/about-claude/models"},
			{Type: "link", Title: "OpenAI Models Documentation", URL: "https://platform.openai.com/docs/models"},
			{Type: "tip", Content: "Focus on practical use cases rather than just benchmarks"},
			{Type: "tip", Content: "Consider cost, speed, and quality trade-offs for each model"},
		},
		ChallengeTips: []string{
			"Create a decision matrix based on task type, budget, and latency requirements",
			"Test the same prompt across multiple models to compare outputs",
			"Document real-world performance, not just advertised capabilities",
		},
	},
	{
		ID:          3,
		Week:        3,
		Title:       "Deep Research",
		Description: "Master deep research techniques using AI tools.",
		SuggestedGoals: []string{
			"Learn advanced prompting for research",
			"Practice synthesizing multiple sources",
			"Create research workflow templates",
			"Complete a full research project",
		},
		Resources: []Resource{
			{Type: "link", Title: "Prompting Guide", URL: "https://www.promptingguide.ai/"},
			{Type: "link", Title: "Perplexity AI for Research", URL: "https://www.perplexity.ai/"},
			{Type: "tip", Content: "Use chain-of-thought prompting for complex research questions"},
			{Type: "tip", Content: "Always verify AI-generated facts with primary sources"},
		},
		ChallengeTips: []string{
			"Break research into phases: explore, gather, synthesize, validate",
			"Create a template for consistent research documentation",
			"Use multiple AI tools to cross-reference findings",
		},
	},
	{
		ID:          4,
		Week:        4,
		Title:       "Data Analyst",
		Description: "Develop data analysis skills with AI assistance.",
		SuggestedGoals: []string{
			"Learn data cleaning with AI",
			"Practice statistical analysis",
			"Create data visualizations",
			"Build an analysis pipeline",
		},
		Resources: []Resource{
			{Type: "link", Title: "Python Pandas Documentation", URL: "https://pandas.pydata.org/docs/"},
			{Type: "link", Title: "Chart.js for Visualizations", URL: "https://www.chartjs.org/docs/latest/"},
			{Type: "tip", Content: "Let AI help write data transformation code, but always validate the output"},
			{Type: "tip", Content: "Start with exploratory data analysis before diving into complex statistics"},
		},
		ChallengeTips: []string{
			"Use AI to explain statistical concepts you encounter",
			"Create reusable code snippets for common data operations",
			"Always visualize data distributions before analysis",
		},
	},
	{
		ID:          5,
		Week:        5,
		Title:       "Visual Reasoning",
		Description: "Explore AI capabilities in visual understanding and reasoning.",
		SuggestedGoals: []string{
			"Understand vision model capabilities",
			"Practice image analysis tasks",
			"Combine visual and text reasoning",
			"Build a visual reasoning project",
		},
		Resources: []Resource{
			{Type: "link", Title: "Claude Vision Capabilities", URL: "https://docs.anthropic.com/en/docs/build-with-claude/vision"},
			{Type: "link", Title: "OpenAI Vision Guide", URL: "https://platform.openai.com/docs/guides/vision"},
			{Type: "tip", Content: "Vision models work best with clear, well-lit images"},
			{Type: "tip", Content: "Combine image analysis with text prompts for richer understanding"},
		},
		ChallengeTips: []string{
			"Test vision models on diverse image types: charts, diagrams, photos, screenshots",
			"Use specific questions to guide image analysis",
			"Consider multi-modal workflows combining vision and text",
		},
	},
	{
		ID:          6,
		Week:        6,
		Title:       "Information Pipelines",
		Description: "Build automated information processing pipelines.",
		SuggestedGoals: []string{
			"Design pipeline architecture",
			"Implement data ingestion",
			"Add transformation layers",
			"Create output formatting",
		},
		Resources: []Resource{
			{Type: "link", Title: "Zapier for No-Code Automation", URL: "https://zapier.com/learn"},
			{Type: "link", Title: "n8n Workflow Automation", URL: "https://docs.n8n.io/"},
			{Type: "tip", Content: "Start with a simple linear pipeline before adding complexity"},
			{Type: "tip", Content: "Add error handling and logging at each pipeline stage"},
		},
		ChallengeTips: []string{
			"Map out data flow before writing any code",
			"Test each pipeline stage independently",
			"Consider idempotency for reliable re-runs",
		},
	},
	{
		ID:          7,
		Week:        7,
		Title:       "Automation: Distribution",
		Description: "Automate content distribution across platforms.",
		SuggestedGoals: []string{
			"Map distribution channels",
			"Create automation workflows",
			"Implement scheduling system",
			"Add analytics tracking",
		},
		Resources: []Resource{
			{Type: "link", Title: "Buffer for Social Scheduling", URL: "https://buffer.com/resources"},
			{Type: "link", Title: "Make.com (Integromat)", URL: "https://www.make.com/en/help"},
			{Type: "tip", Content: "Tailor content format for each platform rather than one-size-fits-all"},
			{Type: "tip", Content: "Track engagement metrics to optimize posting times"},
		},
		ChallengeTips: []string{
			"Create content templates for consistent branding across platforms",
			"Use AI to repurpose content for different audiences",
			"Build in approval workflows for quality control",
		},
	},
	{
		ID:          8,
		Week:        8,
		Title:       "Automation: Productivity",
		Description: "Boost productivity through AI automation.",
		SuggestedGoals: []string{
			"Identify automation opportunities",
			"Build productivity tools",
			"Integrate with existing workflow",
			"Measure time savings",
		},
		Resources: []Resource{
			{Type: "link", Title: "Raycast for Mac Productivity", URL: "https://www.raycast.com/"},
			{Type: "link", Title: "AutoHotkey for Windows", URL: "https://www.autohotkey.com/docs/"},
			{Type: "tip", Content: "Automate repetitive tasks you do more than 3 times per week"},
			{Type: "tip", Content: "Track time spent before and after automation to measure ROI"},
		},
		ChallengeTips: []string{
			"Keep a log of repetitive tasks for one week to identify candidates",
			"Start with simple automations and gradually add complexity",
			"Document your automations for future reference",
		},
	},
	{
		ID:          9,
		Week:        9,
		Title:       "Context Engineering",
		Description: "Master the art of providing context to AI systems.",
		SuggestedGoals: []string{
			"Learn context window optimization",
			"Practice prompt engineering",
			"Build context management system",
			"Create reusable context templates",
		},
		Resources: []Resource{
			{Type: "link", Title: "Anthropic Prompt Engineering Guide", URL: "https://docs.anthropic.com/en/docs/build-with-claude/prompt-engineering"},
			{Type: "link", Title: "OpenAI Prompt Engineering", URL: "https://platform.openai.com/docs/guides/prompt-engineering"},
			{Type: "tip", Content: "Put the most important context at the beginning and end of prompts"},
			{Type: "tip", Content: "Use system prompts to establish consistent behavior"},
		},
		ChallengeTips: []string{
			"Experiment with different context orderings to see impact on output",
			"Create a library of tested, effective prompts",
			"Use XML tags or clear delimiters to structure context",
		},
	},
	{
		ID:          10,
		Week:        10,
		Title:       "Build an AI App",
		Description: "Culminate your learning by building a complete AI application.",
		SuggestedGoals: []string{
			"Define app concept and scope",
			"Design system architecture",
			"Implement core features",
			"Deploy and share your app",
		},
		Resources: []Resource{
			{Type: "link", Title: "Vercel Deployment Guide", URL: "https://vercel.com/docs"},
			{Type: "link", Title: "Supabase Quick Start", URL: "https://supabase.com/docs/guides/getting-started"},
			{Type: "tip", Content: "Start with an MVP - you can always add features later"},
			{Type: "tip", Content: "Use AI to help debug and explain error messages"},
		},
		ChallengeTips: []string{
			"Scope ruthlessly - pick one core feature to nail first",
			"Get user feedback early and often",
			"Deploy early so you can iterate based on real usage",
		},
	},
}
