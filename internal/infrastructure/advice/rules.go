package advice

import (
	"context"
	"strings"

	"leaf-bot/internal/domain/entity"
	"leaf-bot/internal/domain/port"
)

const (
	adviceUnknown = "Consult an agronomist"
	adviceDefault = "Use fungicide; monitor plant health"
)

// rule сопоставляет подстроку метки с рекомендацией.
type rule struct {
	keyword   string
	treatment string
}

var defaultRules = []rule{
	{"bacterial", "Use copper-based bactericide; remove infected leaves"},
	{"blight", "Apply appropriate fungicide; improve airflow"},
	{"rust", "Use fungicide; prune and destroy infected leaves"},
	{"mildew", "Use sulfur-based fungicide; avoid overhead watering"},
}

// RuleAdvisor подбирает рекомендацию по ключевым словам в метке класса.
type RuleAdvisor struct {
	rules []rule
}

func NewRuleAdvisor() *RuleAdvisor {
	return &RuleAdvisor{rules: defaultRules}
}

// Advise возвращает первую подходящую рекомендацию. Регистр метки не учитывается.
func (a *RuleAdvisor) Advise(ctx context.Context, label string) (*entity.Advice, error) {
	_ = ctx
	if label == "" {
		return &entity.Advice{Treatment: adviceUnknown}, nil
	}

	key := strings.ToLower(label)
	for _, r := range a.rules {
		if strings.Contains(key, r.keyword) {
			return &entity.Advice{Label: label, Treatment: r.treatment}, nil
		}
	}
	return &entity.Advice{Label: label, Treatment: adviceDefault}, nil
}

var _ port.TreatmentAdvisor = (*RuleAdvisor)(nil)
