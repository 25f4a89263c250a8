package cache

// Keyer names cache entries.
type Keyer interface {
	// GraphKey names a built graph for a dictionary and build options.
	GraphKey(dictionaryHash string, opts GraphKeyOpts) string
	// LayoutKey names drawn Graphviz output for a DOT description.
	LayoutKey(dotHash string, opts LayoutKeyOpts) string
	// SummaryKey names a data model summary for a start node.
	SummaryKey(graphHash, startNode string, subgraph []string) string
}

// GraphKeyOpts are the inputs besides the dictionary that shape a graph.
type GraphKeyOpts struct {
	CountsHash string   `json:"counts,omitempty"`
	LinksHash  string   `json:"links,omitempty"`
	CreateAll  bool     `json:"create_all,omitempty"`
	Hidden     []string `json:"hidden,omitempty"`
}

// LayoutKeyOpts are the inputs besides the description that shape a
// drawing.
type LayoutKeyOpts struct {
	Engine string `json:"engine,omitempty"`
}

// DefaultKeyer hashes key inputs under a fixed prefix per entry kind.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// GraphKey implements Keyer.
func (DefaultKeyer) GraphKey(dictionaryHash string, opts GraphKeyOpts) string {
	return hashKey("graph", dictionaryHash, opts)
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(dotHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", dotHash, opts)
}

// SummaryKey implements Keyer.
func (DefaultKeyer) SummaryKey(graphHash, startNode string, subgraph []string) string {
	return hashKey("summary", graphHash, startNode, subgraph)
}
