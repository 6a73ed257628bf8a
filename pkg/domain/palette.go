package domain

// PaletteSize is the number of distinct colors handed out to nodes.
const PaletteSize = 20

// ColorScheme maps a palette index to a display color.
type ColorScheme func(index int) string

// Category20 is the default 20-color categorical palette.
var Category20 = []string{
	"#1f77b4", "#aec7e8", "#ff7f0e", "#ffbb78", "#2ca02c",
	"#98df8a", "#d62728", "#ff9896", "#9467bd", "#c5b0d5",
	"#8c564b", "#c49c94", "#e377c2", "#f7b6d2", "#7f7f7f",
	"#c7c7c7", "#bcbd22", "#dbdb8d", "#17becf", "#9edae5",
}

// PaletteScheme returns a ColorScheme cycling through the given colors.
func PaletteScheme(colors []string) ColorScheme {
	if len(colors) == 0 {
		colors = Category20
	}
	return func(index int) string {
		if index < 0 {
			index = -index
		}
		return colors[index%len(colors)]
	}
}
