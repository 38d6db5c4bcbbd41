package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

type templateFile struct {
	Templates []model.TaskTemplate `yaml:"templates"`
}

// LoadTemplates reads task templates from a YAML seed file of the form
//
//	templates:
//	  - name: Weekly review
//	    tasks:
//	      - title: Clear inbox
//	        priority: high
//	        subtasks: [Email, Slack]
func LoadTemplates(path string) ([]model.TaskTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates file: %w", err)
	}

	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse templates file: %w", err)
	}

	for i, tmpl := range file.Templates {
		if tmpl.Name == "" {
			return nil, fmt.Errorf("template %d: name is required", i+1)
		}
		if len(tmpl.Tasks) == 0 {
			return nil, fmt.Errorf("template %q: no tasks", tmpl.Name)
		}
		for j, draft := range tmpl.Tasks {
			if draft.Title == "" {
				return nil, fmt.Errorf("template %q task %d: title is required", tmpl.Name, j+1)
			}
			if draft.Priority != "" && !draft.Priority.Valid() {
				return nil, fmt.Errorf("template %q task %q: invalid priority %q", tmpl.Name, draft.Title, draft.Priority)
			}
		}
	}
	return file.Templates, nil
}
