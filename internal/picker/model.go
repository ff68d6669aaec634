package picker

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"inline-llm/internal/lineparse"
)

// Own instance: httputil.Validator is out of reach since httputil imports app.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ModelChoice is a provider/model pair offered in a model picker.
// Lines look like: provider,model,description
type ModelChoice struct {
	Provider    string `validate:"required,max=64"`
	Model       string `validate:"required,max=256"`
	Description string `validate:"max=512"`
}

// Line renders the choice for display.
func (m ModelChoice) Line() string {
	fields := []string{m.Provider, m.Model}
	if m.Description != "" {
		fields = append(fields, m.Description)
	}
	return lineparse.Join(fields)
}

// ParseModelChoice turns a displayed line back into a validated choice.
// A single "provider/model" field is accepted as well.
func ParseModelChoice(line string) (ModelChoice, error) {
	fields := lineparse.Parse(line)
	if len(fields) == 1 {
		if provider, model, ok := strings.Cut(fields[0], "/"); ok {
			fields = []string{provider, model}
		}
	}
	var mc ModelChoice
	if len(fields) > 0 {
		mc.Provider = fields[0]
	}
	if len(fields) > 1 {
		mc.Model = fields[1]
	}
	if len(fields) > 2 {
		mc.Description = fields[2]
	}
	if err := validate.Struct(mc); err != nil {
		return ModelChoice{}, fmt.Errorf("invalid model choice %q: %w", line, err)
	}
	return mc, nil
}
