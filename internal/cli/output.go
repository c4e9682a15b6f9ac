package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"linkage/internal/linkage/models"
)

// Render writes resp in the requested format. YAML output keeps the JSON
// field names and order.
func Render(w io.Writer, format string, resp models.Response) error {
	body, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if format != "yaml" {
		_, err = fmt.Fprintln(w, string(body))
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(body, &node); err != nil {
		return fmt.Errorf("convert response: %w", err)
	}
	clearStyle(&node)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// clearStyle drops the flow style inherited from the JSON source so the
// encoder emits block YAML.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// outcome turns a response status into the command's result.
func outcome(resp models.Response, failNotFound bool) error {
	if code := exitCodeFor(resp.Status, failNotFound); code != ExitSuccess {
		return Fail(code, resp.Message, nil)
	}
	return nil
}
