package htmlscrape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const homeManagerFixture = `
<html><body>
<h3>Programs</h3>
<div class="variablelist">
<dl>
<dt><span class="term"><code>programs.git.enable</code></span></dt>
<dd>
<p>Whether to enable git.</p>
<p>Type: boolean</p>
<p>Default: false</p>
<p>Example: true</p>
</dd>
</dl>
</div>
</body></html>
`

func TestParseHomeManager(t *testing.T) {
	recs := ParseHomeManager(homeManagerFixture, "options")
	require.Len(t, recs, 1)
	r := recs[0]
	require.Equal(t, "programs.git.enable", r.Name)
	require.Equal(t, "Whether to enable git.", r.Description)
	require.Equal(t, "boolean", r.Type)
	require.Equal(t, "false", r.Default)
	require.Equal(t, "true", r.Example)
	require.Equal(t, "Programs", r.Category)
	require.Equal(t, "options", r.Source)
}

func TestParseHomeManagerNoVariablelist(t *testing.T) {
	recs := ParseHomeManager("<html><body>nothing here</body></html>", "options")
	require.Nil(t, recs)
}

const darwinFixture = `
<html><body>
<dl class="variablelist">
<dt><a id="opt-system.defaults.dock.autohide"></a><code class="option">system.defaults.dock.autohide</code></dt>
<dd>
<p>Whether to automatically hide the dock.</p>
<div class="itemizedlist">Type: boolean</div>
<div class="itemizedlist">Default: false</div>
<div class="itemizedlist">Declared by: &lt;nix-darwin/modules/system/defaults.nix&gt;</div>
</dd>
</dl>
</body></html>
`

func TestParseDarwin(t *testing.T) {
	recs := ParseDarwin(darwinFixture, "darwin")
	require.Len(t, recs, 1)
	r := recs[0]
	require.Equal(t, "system.defaults.dock.autohide", r.Name)
	require.Contains(t, r.Description, "automatically hide")
	require.Equal(t, "boolean", r.Type)
	require.Equal(t, "false", r.Default)
	require.Contains(t, r.DeclaredBy, "nix-darwin")
	require.Equal(t, "darwin", r.Source)
}
