package moderation

// defaultBannedWords is the stock filter list: political figures, insults,
// common leetspeak spellings, violent terms.
var defaultBannedWords = []string{
	"evo",
	"arce",
	"mesa",
	"camacho",

	"idiota",
	"estúpido",
	"tonto",
	"bobo",
	"pendejo",
	"hijo de puta",
	"hdp",
	"carajo",
	"mierda",
	"joder",
	"puto",
	"puta",
	"cabrón",
	"cabron",
	"bastardo",
	"imbécil",
	"imbecil",

	"h1j0",
	"put4",
	"m13rd4",
	"1d10t4",
	"3st0p1d0",

	"odio",
	"muerte",
	"matar",
	"asesino",

	"corrupto",
	"ladrón",
	"ladron",
}
