package parser

import (
	"encoding/json"

	"github.com/scribblerbot/scribbler/pkg/core"
)

// ParseParamHelp parses the short:param-help response, a JSON object mapping
// parameter codes to their descriptions.
func ParseParamHelp(text string) (core.ParamHelp, error) {
	var help map[string]string
	if err := json.Unmarshal([]byte(text), &help); err != nil {
		return nil, malformed("param help", text, err)
	}
	if help == nil {
		return nil, malformed("param help", text, nil)
	}
	return core.ParamHelp(help), nil
}
