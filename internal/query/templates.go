package query

import (
	"github.com/helixir/literature-digest-service/internal/domain"
)

// Template is a pre-defined intersection search: an ordered list of topic
// names whose expressions must all match the same paper.
type Template struct {
	// Name is the stable template key used in API requests and config.
	Name string

	// DisplayName is the human-readable label shown in digests.
	DisplayName string

	// TopicNames are the member topics, in canonical (input) order.
	TopicNames []string
}

// builtinTemplates are the standing multi-domain searches. Each member name
// must exist in the topic registry for the template to resolve.
var builtinTemplates = []Template{
	{
		Name:        "glp1_muscle",
		DisplayName: "GLP-1 & Muscle/Body Composition",
		TopicNames:  []string{"GLP-1 Agonists", "Muscle & Sarcopenia"},
	},
	{
		Name:        "menopause_bone",
		DisplayName: "Menopause & Bone Health",
		TopicNames:  []string{"Menopause", "Bone Health"},
	},
	{
		Name:        "exercise_cognition",
		DisplayName: "Exercise & Cognitive Health",
		TopicNames:  []string{"Exercise & Training", "Cognitive Health"},
	},
	{
		Name:        "statins_muscle",
		DisplayName: "Statins & Muscle Effects",
		TopicNames:  []string{"Statins", "Muscle & Sarcopenia"},
	},
	{
		Name:        "apob_interventions",
		DisplayName: "ApoB & Interventions",
		TopicNames:  []string{"ApoB & Lipids", "Interventions"},
	},
	{
		Name:        "protein_aging",
		DisplayName: "Protein & Older Adults",
		TopicNames:  []string{"Dietary Protein", "Older Adults"},
	},
	{
		Name:        "sleep_cognition",
		DisplayName: "Sleep & Cognitive Health",
		TopicNames:  []string{"Sleep", "Cognitive Health"},
	},
	{
		Name:        "vo2max_mortality",
		DisplayName: "Cardiorespiratory Fitness & Mortality",
		TopicNames:  []string{"Cardiorespiratory Fitness", "Mortality & Longevity"},
	},
	{
		Name:        "hrt_cardiovascular",
		DisplayName: "HRT & Cardiovascular Risk",
		TopicNames:  []string{"Hormone Therapy", "Cardiovascular Health"},
	},
	{
		Name:        "zone2_mitochondria",
		DisplayName: "Endurance Training & Mitochondria",
		TopicNames:  []string{"Endurance Training", "Mitochondrial Function"},
	},
}

// Templates returns the pre-defined intersection templates in declaration
// order.
func Templates() []Template {
	out := make([]Template, len(builtinTemplates))
	copy(out, builtinTemplates)
	return out
}

// TemplateByName returns the template with the given key, failing with
// NotFoundError when unknown.
func TemplateByName(name string) (Template, error) {
	for _, t := range builtinTemplates {
		if t.Name == name {
			return t, nil
		}
	}
	return Template{}, domain.NewNotFoundError("template", name)
}

// ResolveTemplate looks up a template and builds its intersection query
// against the given registry. It fails with NotFoundError when the template
// is unknown or any member topic is absent from the registry.
func ResolveTemplate(name string, resolver Resolver) (string, error) {
	tpl, err := TemplateByName(name)
	if err != nil {
		return "", err
	}

	members := make([]domain.Topic, 0, len(tpl.TopicNames))
	for _, topicName := range tpl.TopicNames {
		topic, err := resolver.TopicByName(topicName)
		if err != nil {
			return "", err
		}
		members = append(members, topic)
	}

	return BuildIntersectionQuery(members)
}
