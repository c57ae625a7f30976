package services

import (
	"regexp"

	"jobfill/models"
)

// Cluster names, in prompt order.
const (
	ClusterEEO           = "Equal Employment / Self-Identification"
	ClusterWorkAuth      = "Work Authorization"
	ClusterExperience    = "Experience & Qualifications"
	ClusterScreening     = "Screening Questions"
	ClusterUncategorized = "Other Fields"
)

var clusterRules = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{ClusterEEO, regexp.MustCompile(`gender|\brace\b|ethnic|hispanic|latino|veteran|disabilit|sexual orientation|pronoun|self[\s_-]?identif|transgender`)},
	{ClusterWorkAuth, regexp.MustCompile(`authori[sz]|sponsor|visa|citizen|work permit|right to work|eligib|immigration`)},
	{ClusterExperience, regexp.MustCompile(`years|experience|degree|education|certif|licen[cs]e|skill|proficien|qualif|language`)},
	{ClusterScreening, regexp.MustCompile(`salary|compensation|relocat|start date|notice|availab|hear about|referr|\bwhy\b|remote|travel|background|convicted|felony|agree|consent|non-?compete|shift`)},
}

// FieldCluster is a named group of batch indices.
type FieldCluster struct {
	Name    string
	Indices []int
}

// ClusterFields groups field indices by topic for prompt layout. Indices keep
// their batch positions, and empty clusters are omitted.
func ClusterFields(fields []models.FieldDescriptor, indices []int) []FieldCluster {
	byName := map[string][]int{}
	for _, i := range indices {
		name := ClusterUncategorized
		text := fields[i].SearchText()
		for _, r := range clusterRules {
			if r.pattern.MatchString(text) {
				name = r.name
				break
			}
		}
		byName[name] = append(byName[name], i)
	}

	order := []string{ClusterEEO, ClusterWorkAuth, ClusterExperience, ClusterScreening, ClusterUncategorized}
	var out []FieldCluster
	for _, name := range order {
		if len(byName[name]) > 0 {
			out = append(out, FieldCluster{Name: name, Indices: byName[name]})
		}
	}
	return out
}
