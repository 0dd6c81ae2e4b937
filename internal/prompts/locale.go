package prompts

import (
	"fmt"
	"strings"

	"github.com/yoockh/interviewer/internal/models"
)

const (
	LangEnglish = "en"
	LangChinese = "zh"
)

// NormalizeLanguage maps any input to a supported interview language.
func NormalizeLanguage(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if strings.HasPrefix(v, "zh") {
		return LangChinese
	}
	return LangEnglish
}

// Locale holds the fixed interviewer lines for one language.
type Locale struct {
	Lang string

	greetingAnonymous string
	greetingNamed     string // %s = candidate name
	introAfterName    string // %s = candidate name
	stagePrompts      map[models.Stage]string

	EndedMessage string
	ClosingLine  string
	diagnostic   string // %s = last error
}

var locales = map[string]Locale{
	LangEnglish: {
		Lang:              LangEnglish,
		greetingAnonymous: "Hello! Welcome to your interview. Before we begin, could you tell me your name?",
		greetingNamed:     "Hello, %s! Welcome to your interview. Let me know when you are ready to begin.",
		introAfterName:    "Thanks, %s. Could you briefly introduce yourself?",
		stagePrompts: map[models.Stage]string{
			models.StageIntroduction:       "Hello! Could you briefly introduce yourself?",
			models.StageSkillsExperience:   "Can you describe your skills and relevant experience?",
			models.StageTechnical:          "Let's move on to some technical questions. Could you walk me through a recent technical problem you solved?",
			models.StageExpectations:       "What are your salary expectations?",
			models.StageCandidateQuestions: "Do you have any questions for us?",
			models.StageEnded:              "Thank you. The interview has concluded.",
		},
		EndedMessage: "The interview has ended. Thank you.",
		ClosingLine:  "\n\nThank you. The interview has concluded.",
		diagnostic:   "Completion request failed: %s",
	},
	LangChinese: {
		Lang:              LangChinese,
		greetingAnonymous: "您好！欢迎参加本次面试。开始之前，请问怎么称呼您？",
		greetingNamed:     "您好，%s！欢迎参加本次面试。准备好后请告诉我。",
		introAfterName:    "谢谢，%s。请简单介绍一下您自己。",
		stagePrompts: map[models.Stage]string{
			models.StageIntroduction:       "您好！请简单介绍一下您自己。",
			models.StageSkillsExperience:   "请描述一下您的技能和相关经验。",
			models.StageTechnical:          "接下来我们聊一些技术问题。请介绍一个您最近解决过的技术难题。",
			models.StageExpectations:       "您的薪资期望是多少？",
			models.StageCandidateQuestions: "您有什么问题想问我们吗？",
			models.StageEnded:              "谢谢。面试到此结束。",
		},
		EndedMessage: "面试已结束。谢谢。",
		ClosingLine:  "\n\n谢谢。面试到此结束。",
		diagnostic:   "请求失败：%s",
	},
}

func For(lang string) Locale {
	return locales[NormalizeLanguage(lang)]
}

// Greeting asks for the candidate's name, or welcomes them by name when it
// is already known.
func (l Locale) Greeting(candidateName string) string {
	if candidateName != "" {
		return fmt.Sprintf(l.greetingNamed, candidateName)
	}
	return l.greetingAnonymous
}

func (l Locale) IntroAfterName(name string) string {
	return fmt.Sprintf(l.introAfterName, name)
}

func (l Locale) StagePrompt(s models.Stage) string {
	return l.stagePrompts[s]
}

func (l Locale) Diagnostic(err error) string {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return fmt.Sprintf(l.diagnostic, msg)
}
