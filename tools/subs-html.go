package tools

import (
	"fmt"
	"io"
	"io/ioutil"
	"sort"

	"github.com/gangwayio/gangway/bridge"
	. "github.com/gangwayio/gangway/util/testutil"

	md "github.com/russross/blackfriday/v2"
	"gopkg.in/yaml.v2"
)

// RenderSubsHTML writes an HTML table of the given subscriptions,
// grouped by module, with each subscription's Doc rendered as
// markdown.
func RenderSubsHTML(subs []*bridge.Subscription, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	byModule := make(map[string][]*bridge.Subscription, len(subs))
	modules := make([]string, 0, len(subs))
	for _, sub := range subs {
		if _, have := byModule[sub.Module]; !have {
			modules = append(modules, sub.Module)
		}
		byModule[sub.Module] = append(byModule[sub.Module], sub)
	}
	sort.Strings(modules)

	f(`<div class="subs"><table>`)
	for _, module := range modules {
		f(`<tr class="module"><td><span id="%s" class="moduleName">%s</span></td><td>`, module, module)
		f(`<table>`)
		for _, sub := range byModule[module] {
			f(`<tr><td><code class="tag">%s</code></td><td>`, sub.Tag)
			if sub.Doc != "" {
				f(`<div class="subDoc doc">%s</div>`, md.Run([]byte(sub.Doc)))
			}
			f(`</td></tr>`)
		}
		f(`</table>`)
		f(`</td></tr>`)
	}
	f(`</table></div>`)

	return nil
}

// RenderSubsPage is RenderSubsHTML wrapped in a complete HTML page.
func RenderSubsPage(name string, subs []*bridge.Subscription, out io.Writer, cssFiles []string) error {

	if cssFiles == nil {
		cssFiles = []string{"/static/subs-html.css"}
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, name)

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, name)

	if err := RenderSubsHTML(subs, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// Manifest is an offline description of a bridge's subscriptions,
// suitable for documentation (and for the gwdoc command).
type Manifest struct {
	// Name names the bridge (for the page title).
	Name string `yaml:"name"`

	// Subscriptions lists the bridge's subscriptions.  Decoders
	// obviously can't appear here.
	Subscriptions []*bridge.Subscription `yaml:"subscriptions"`
}

// ReadManifest reads a YAML Manifest from the given file.
func ReadManifest(filename string) (*Manifest, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err = yaml.Unmarshal(bs, &m); err != nil {
		return nil, err
	}
	for _, sub := range m.Subscriptions {
		if sub.Module == "" || sub.Tag == "" {
			return nil, fmt.Errorf("bad subscription %s in %s", JS(sub), filename)
		}
	}
	return &m, nil
}

// ReadAndRenderSubsPage reads a Manifest and renders its page.
func ReadAndRenderSubsPage(filename string, cssFiles []string, out io.Writer) error {
	m, err := ReadManifest(filename)
	if err != nil {
		return err
	}
	return RenderSubsPage(m.Name, m.Subscriptions, out, cssFiles)
}
