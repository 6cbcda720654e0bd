package normalize

// Variant names the shape a snapshot's content takes.
type Variant int

const (
	// Flat snapshots carry the content fields directly.
	Flat Variant = iota
	// Carded snapshots carry the content fields on their first card.
	Carded
)

func (v Variant) String() string {
	if v == Carded {
		return "carded"
	}
	return "flat"
}

// content is the per-variant view over an ad's creative. Each accessor
// returns "" when its field is missing.
type content interface {
	Variant() Variant
	LinkURL() string
	ImageURL() string
	VideoURL() string
	Body() string
	CTAText() string
	Title() string
	LinkDescription() string
}

// selectContent picks the variant for a snapshot: a link_url key on the
// snapshot itself means flat, anything else is treated as carded.
func selectContent(snapshot map[string]any) content {
	if _, ok := snapshot["link_url"]; ok {
		return flatContent{snapshot: snapshot}
	}
	return cardedContent{card: firstMap(snapshot, "cards")}
}

type flatContent struct {
	snapshot map[string]any
}

func (c flatContent) Variant() Variant { return Flat }
func (c flatContent) LinkURL() string  { return stringField(c.snapshot, "link_url") }
func (c flatContent) CTAText() string  { return stringField(c.snapshot, "cta_text") }
func (c flatContent) Title() string    { return stringField(c.snapshot, "title") }

func (c flatContent) ImageURL() string {
	return stringField(firstMap(c.snapshot, "images"), "original_image_url")
}

func (c flatContent) VideoURL() string {
	return stringField(firstMap(c.snapshot, "videos"), "video_hd_url")
}

// Body reads body.markup.__html.
func (c flatContent) Body() string {
	return stringField(mapField(mapField(c.snapshot, "body"), "markup"), "__html")
}

func (c flatContent) LinkDescription() string {
	return stringField(c.snapshot, "link_description")
}

type cardedContent struct {
	card map[string]any
}

func (c cardedContent) Variant() Variant { return Carded }
func (c cardedContent) LinkURL() string  { return stringField(c.card, "link_url") }
func (c cardedContent) ImageURL() string { return stringField(c.card, "original_image_url") }
func (c cardedContent) VideoURL() string { return stringField(c.card, "video_hd_url") }
func (c cardedContent) Body() string     { return stringField(c.card, "body") }
func (c cardedContent) CTAText() string  { return stringField(c.card, "cta_text") }
func (c cardedContent) Title() string    { return stringField(c.card, "title") }

func (c cardedContent) LinkDescription() string {
	return stringField(c.card, "link_description")
}
