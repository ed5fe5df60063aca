package formats

import (
	"io"

	"github.com/goccy/go-yaml"

	"github.com/swxlab/swx-data-apps/internal/container"
)

// previewLen bounds how many values a YAML dump shows per variable.
const previewLen = 8

// DumpYAML renders the container tree as YAML for inspection: global
// metadata, then nested groups with per-variable dtype, shape,
// metadata and a short value preview. Not a round-trippable encoding.
func DumpYAML(c *container.Container, w io.Writer) error {
	doc := map[string]any{}
	if meta := c.Root().Metadata(); len(meta) > 0 {
		doc["metadata"] = meta
	}
	doc["tree"] = groupToMap(c.Root())

	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func groupToMap(g *container.Node) map[string]any {
	out := map[string]any{}
	for _, child := range g.Children() {
		if child.IsGroup() {
			entry := map[string]any{}
			if meta := child.Metadata(); len(meta) > 0 {
				entry["metadata"] = meta
			}
			entry["children"] = groupToMap(child)
			out[child.Name()] = entry
			continue
		}

		data, _ := child.Data()
		entry := map[string]any{
			"dtype": data.DType(),
			"shape": data.Shape(),
		}
		if meta := child.Metadata(); len(meta) > 0 {
			entry["metadata"] = meta
		}
		if p := preview(data); p != nil {
			entry["preview"] = p
		}
		out[child.Name()] = entry
	}
	return out
}

func preview(data container.Array) any {
	n := data.Len()
	if n > previewLen {
		n = previewLen
	}
	if n == 0 {
		return nil
	}

	if vals, ok := data.AsFloat64s(); ok {
		return vals[:n]
	}
	if vals, ok := data.Values().([]string); ok {
		return vals[:n]
	}
	return nil
}
