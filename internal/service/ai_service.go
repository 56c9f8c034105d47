package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"skillpath.app/backend/internal/agent"
)

type GeneratedResource struct {
	Title            string `json:"title"`
	Type             string `json:"type"`
	Description      string `json:"description"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

type GeneratedTopic struct {
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	EstimatedHours int                 `json:"estimated_hours"`
	Resources      []GeneratedResource `json:"resources"`
}

type GeneratedLearningPath struct {
	Title               string           `json:"title"`
	Description         string           `json:"description"`
	EstimatedTotalHours int              `json:"estimated_total_hours"`
	Topics              []GeneratedTopic `json:"topics"`
}

type GeneratedQuestion struct {
	QuestionText  string   `json:"question_text"`
	QuestionType  string   `json:"question_type"`
	CorrectAnswer string   `json:"correct_answer"`
	Options       []string `json:"options"`
	Explanation   string   `json:"explanation"`
}

type StudyRecommendation struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
	EstimatedTime string `json:"estimated_time"`
	Category      string `json:"category"`
}

// AIService generates learning content with Gemini. Every operation degrades
// to a static fallback when no generator is configured or the model errors,
// so the rest of the app never has to care whether AI is available.
type AIService interface {
	GenerateLearningPath(ctx context.Context, subject, difficulty string, goals []string) (*GeneratedLearningPath, error)
	GenerateQuizQuestions(ctx context.Context, topic, difficulty string, count int) ([]GeneratedQuestion, error)
	SummarizeContent(ctx context.Context, content string, maxLength int) (string, error)
	AnswerQuestion(ctx context.Context, question, context string) (string, error)
	GenerateStudyRecommendations(ctx context.Context, userProgress map[string]any, learningStyle string) ([]StudyRecommendation, error)
	GenerateArticle(ctx context.Context, topic string, length int) (string, error)
}

type aiService struct {
	generator agent.Generator
}

func NewAIService(generator agent.Generator) AIService {
	return &aiService{generator: generator}
}

func (s *aiService) GenerateLearningPath(ctx context.Context, subject, difficulty string, goals []string) (*GeneratedLearningPath, error) {
	if s.generator == nil {
		return fallbackLearningPath(subject, difficulty), nil
	}

	prompt := fmt.Sprintf(`Create a comprehensive learning path for the subject: %s
Difficulty level: %s
Learning goals: %s

Please provide a structured learning path with:
1. 5-8 main topics in logical order
2. For each topic, include:
   - Title
   - Description (2-3 sentences)
   - Estimated study time in hours
   - 3-5 key learning resources (mix of videos, articles, exercises)

Format the response as JSON with this structure:
{
    "title": "Learning Path Title",
    "description": "Overall description",
    "estimated_total_hours": 40,
    "topics": [
        {
            "title": "Topic Title",
            "description": "Topic description",
            "estimated_hours": 5,
            "resources": [
                {
                    "title": "Resource Title",
                    "type": "video|article|exercise|book",
                    "description": "Resource description",
                    "estimated_minutes": 30
                }
            ]
        }
    ]
}

Respond only with valid JSON, no additional text.`, subject, difficulty, strings.Join(goals, ", "))

	raw, err := s.generator.GenerateJSON(ctx, prompt)
	if err != nil {
		log.Printf("AI learning path generation failed: %v", err)
		return fallbackLearningPath(subject, difficulty), nil
	}

	var path GeneratedLearningPath
	if err := json.Unmarshal([]byte(raw), &path); err != nil {
		log.Printf("AI learning path generation returned invalid JSON: %v", err)
		return fallbackLearningPath(subject, difficulty), nil
	}

	return &path, nil
}

func (s *aiService) GenerateQuizQuestions(ctx context.Context, topic, difficulty string, count int) ([]GeneratedQuestion, error) {
	if count <= 0 {
		count = 5
	}
	if s.generator == nil {
		return fallbackQuizQuestions(topic, count), nil
	}

	prompt := fmt.Sprintf(`Generate %d quiz questions about: %s
Difficulty level: %s

Create a mix of question types:
- Multiple choice (60%%)
- True/False (20%%)
- Short answer (20%%)

For each question, provide:
- Question text
- Question type
- Correct answer
- For multiple choice: 4 options including the correct one
- Brief explanation of the correct answer

Format as JSON array:
[
    {
        "question_text": "Question here?",
        "question_type": "multiple_choice|true_false|short_answer",
        "correct_answer": "Correct answer",
        "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
        "explanation": "Why this is correct"
    }
]

Respond only with valid JSON array, no additional text.`, count, topic, difficulty)

	raw, err := s.generator.GenerateJSON(ctx, prompt)
	if err != nil {
		log.Printf("AI quiz generation failed: %v", err)
		return fallbackQuizQuestions(topic, count), nil
	}

	var questions []GeneratedQuestion
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		log.Printf("AI quiz generation returned invalid JSON: %v", err)
		return fallbackQuizQuestions(topic, count), nil
	}

	return questions, nil
}

func (s *aiService) SummarizeContent(ctx context.Context, content string, maxLength int) (string, error) {
	if maxLength <= 0 {
		maxLength = 200
	}
	if s.generator == nil || len(content) < 100 {
		return truncate(content, maxLength), nil
	}

	prompt := fmt.Sprintf(`Summarize the following content in approximately %d characters.
Focus on the key points and main ideas:

%s

Provide only the summary, no additional text.`, maxLength, content)

	summary, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		log.Printf("AI summarization failed: %v", err)
		return truncate(content, maxLength), nil
	}

	return summary, nil
}

func (s *aiService) AnswerQuestion(ctx context.Context, question, questionContext string) (string, error) {
	if s.generator == nil {
		return "I'm sorry, but AI question answering is not available at the moment. Please try again later.", nil
	}

	var prompt string
	if questionContext != "" {
		prompt = fmt.Sprintf("Context: %s\n\nQuestion: %s\n\nProvide a clear, accurate, and educational answer.", questionContext, question)
	} else {
		prompt = fmt.Sprintf("Question: %s\n\nProvide a clear, accurate, and educational answer.", question)
	}

	answer, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		log.Printf("AI question answering failed: %v", err)
		return "I'm sorry, but I couldn't process your question at the moment. Please try again later.", nil
	}

	return answer, nil
}

func (s *aiService) GenerateStudyRecommendations(ctx context.Context, userProgress map[string]any, learningStyle string) ([]StudyRecommendation, error) {
	if s.generator == nil {
		return fallbackRecommendations(learningStyle), nil
	}

	progressJSON, err := json.Marshal(userProgress)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Based on the following user learning data, provide 5 personalized study recommendations:

Learning style: %s
Progress data: %s

Consider:
- Areas where the user is struggling
- Learning style preferences
- Time management
- Motivation techniques

Format as JSON array:
[
    {
        "title": "Recommendation title",
        "description": "Detailed recommendation",
        "priority": "high|medium|low",
        "estimated_time": "Time needed",
        "category": "study_technique|time_management|content_review|motivation"
    }
]

Respond only with valid JSON array, no additional text.`, learningStyle, progressJSON)

	raw, err := s.generator.GenerateJSON(ctx, prompt)
	if err != nil {
		log.Printf("AI recommendations failed: %v", err)
		return fallbackRecommendations(learningStyle), nil
	}

	var recommendations []StudyRecommendation
	if err := json.Unmarshal([]byte(raw), &recommendations); err != nil {
		log.Printf("AI recommendations returned invalid JSON: %v", err)
		return fallbackRecommendations(learningStyle), nil
	}

	return recommendations, nil
}

func (s *aiService) GenerateArticle(ctx context.Context, topic string, length int) (string, error) {
	if length <= 0 {
		length = 500
	}
	if s.generator == nil {
		return fallbackArticle(topic), nil
	}

	prompt := fmt.Sprintf(`Write an educational article about: %s
Target length: approximately %d words

The article should be:
- Informative and well-structured
- Suitable for learners
- Include key concepts and practical examples
- Written in clear, accessible language

Provide only the article content, no additional text.`, topic, length)

	article, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		log.Printf("AI article generation failed: %v", err)
		return fallbackArticle(topic), nil
	}

	return article, nil
}

func truncate(content string, maxLength int) string {
	if len(content) > maxLength {
		return content[:maxLength] + "..."
	}
	return content
}

func fallbackLearningPath(subject, difficulty string) *GeneratedLearningPath {
	return &GeneratedLearningPath{
		Title:               fmt.Sprintf("%s Learning Path (%s)", subject, difficulty),
		Description:         fmt.Sprintf("A structured learning path for %s at %s level. This is a basic template that can be customized.", subject, difficulty),
		EstimatedTotalHours: 30,
		Topics: []GeneratedTopic{
			{
				Title:          fmt.Sprintf("Introduction to %s", subject),
				Description:    fmt.Sprintf("Get started with the fundamentals of %s. Learn basic concepts and terminology.", subject),
				EstimatedHours: 5,
				Resources: []GeneratedResource{
					{Title: fmt.Sprintf("What is %s?", subject), Type: "article", Description: fmt.Sprintf("An introductory article covering the basics of %s", subject), EstimatedMinutes: 30},
					{Title: fmt.Sprintf("%s Fundamentals", subject), Type: "video", Description: "Video tutorial covering core concepts", EstimatedMinutes: 45},
				},
			},
			{
				Title:          fmt.Sprintf("Core Concepts in %s", subject),
				Description:    fmt.Sprintf("Dive deeper into the essential concepts and principles of %s.", subject),
				EstimatedHours: 8,
				Resources: []GeneratedResource{
					{Title: fmt.Sprintf("Key Principles of %s", subject), Type: "article", Description: "Detailed explanation of important principles", EstimatedMinutes: 60},
					{Title: fmt.Sprintf("Hands-on %s Practice", subject), Type: "exercise", Description: "Practical exercises to reinforce learning", EstimatedMinutes: 90},
				},
			},
			{
				Title:          fmt.Sprintf("Advanced %s Topics", subject),
				Description:    fmt.Sprintf("Explore advanced concepts and real-world applications of %s.", subject),
				EstimatedHours: 10,
				Resources: []GeneratedResource{
					{Title: fmt.Sprintf("Advanced %s Techniques", subject), Type: "article", Description: "In-depth coverage of advanced topics", EstimatedMinutes: 75},
					{Title: fmt.Sprintf("Real-world %s Applications", subject), Type: "video", Description: "Case studies and practical applications", EstimatedMinutes: 60},
				},
			},
			{
				Title:          "Practice and Assessment",
				Description:    fmt.Sprintf("Test your knowledge and apply what you've learned about %s.", subject),
				EstimatedHours: 7,
				Resources: []GeneratedResource{
					{Title: fmt.Sprintf("%s Practice Problems", subject), Type: "exercise", Description: "Comprehensive practice exercises", EstimatedMinutes: 120},
					{Title: fmt.Sprintf("%s Assessment Quiz", subject), Type: "exercise", Description: "Test your understanding with this quiz", EstimatedMinutes: 45},
				},
			},
		},
	}
}

func fallbackQuizQuestions(topic string, count int) []GeneratedQuestion {
	questions := make([]GeneratedQuestion, 0, count)
	for i := 0; i < count; i++ {
		switch i % 3 {
		case 0:
			questions = append(questions, GeneratedQuestion{
				QuestionText:  fmt.Sprintf("What is an important concept in %s?", topic),
				QuestionType:  "multiple_choice",
				CorrectAnswer: fmt.Sprintf("Key concept of %s", topic),
				Options: []string{
					fmt.Sprintf("Key concept of %s", topic),
					"Unrelated concept A",
					"Unrelated concept B",
					"Unrelated concept C",
				},
				Explanation: fmt.Sprintf("This is a fundamental concept in %s that students should understand.", topic),
			})
		case 1:
			questions = append(questions, GeneratedQuestion{
				QuestionText:  fmt.Sprintf("%s is an important subject to study.", topic),
				QuestionType:  "true_false",
				CorrectAnswer: "True",
				Options:       []string{"True", "False"},
				Explanation:   fmt.Sprintf("Yes, %s is indeed an important subject with many practical applications.", topic),
			})
		default:
			questions = append(questions, GeneratedQuestion{
				QuestionText:  fmt.Sprintf("Explain one key benefit of studying %s.", topic),
				QuestionType:  "short_answer",
				CorrectAnswer: fmt.Sprintf("Studying %s provides valuable knowledge and skills", topic),
				Options:       []string{},
				Explanation:   fmt.Sprintf("There are many benefits to studying %s, including practical applications and career opportunities.", topic),
			})
		}
	}
	return questions
}

func fallbackRecommendations(learningStyle string) []StudyRecommendation {
	return []StudyRecommendation{
		{
			Title:         "Set a Regular Study Schedule",
			Description:   "Establish a consistent daily study routine to build good learning habits and maintain momentum.",
			Priority:      "high",
			EstimatedTime: "15 minutes to plan",
			Category:      "time_management",
		},
		{
			Title:         "Use Active Learning Techniques",
			Description:   fmt.Sprintf("Based on your %s learning style, try techniques like summarizing, teaching others, or creating mind maps.", learningStyle),
			Priority:      "high",
			EstimatedTime: "Ongoing",
			Category:      "study_technique",
		},
		{
			Title:         "Take Regular Breaks",
			Description:   "Use the Pomodoro Technique: study for 25 minutes, then take a 5-minute break to maintain focus and prevent burnout.",
			Priority:      "medium",
			EstimatedTime: "Built into study sessions",
			Category:      "time_management",
		},
		{
			Title:         "Review Previous Material",
			Description:   "Spend 10-15 minutes each day reviewing previously learned material to strengthen long-term retention.",
			Priority:      "medium",
			EstimatedTime: "10-15 minutes daily",
			Category:      "content_review",
		},
		{
			Title:         "Set Learning Goals",
			Description:   "Define specific, measurable learning objectives for each study session to stay motivated and track progress.",
			Priority:      "medium",
			EstimatedTime: "5 minutes before each session",
			Category:      "motivation",
		},
	}
}

func fallbackArticle(topic string) string {
	return fmt.Sprintf(`# Introduction to %[1]s

%[1]s is an important subject that offers valuable knowledge and skills for learners. Understanding the fundamentals of %[1]s can provide numerous benefits and open up new opportunities for personal and professional growth.

## Key Concepts

When studying %[1]s, it's essential to focus on the core concepts that form the foundation of the subject. These fundamental principles serve as building blocks for more advanced topics and practical applications.

## Learning Approach

To effectively learn %[1]s, consider using a structured approach that combines theoretical understanding with practical application. This balanced method helps reinforce learning and makes the subject more engaging and memorable.

## Practical Applications

%[1]s has many real-world applications that make it relevant and useful in various contexts. Understanding these applications can help motivate learning and provide context for theoretical concepts.

## Conclusion

Studying %[1]s is a worthwhile investment in your education and personal development. With consistent effort and the right learning strategies, you can master this subject and apply your knowledge effectively.`, topic)
}
