package openings

// table is the reference line collection. Codes and names follow the
// common ECO naming as used by the big chess sites. The table deliberately
// carries no bare "e4" entry: a lone king's pawn move says nothing about
// the opening yet and is handled by the first-move fallback instead.
var table = []Opening{
	// A: flank openings
	{ECO: "A00", Name: "Polish Opening", moves: "b4"},
	{ECO: "A00", Name: "Grob Opening", moves: "g4"},
	{ECO: "A01", Name: "Nimzo-Larsen Attack", moves: "b3"},
	{ECO: "A02", Name: "Bird Opening", moves: "f4"},
	{ECO: "A03", Name: "Bird Opening, Dutch Variation", moves: "f4 d5"},
	{ECO: "A04", Name: "Zukertort Opening", moves: "nf3"},
	{ECO: "A05", Name: "Zukertort Opening", moves: "nf3 nf6"},
	{ECO: "A06", Name: "Zukertort Opening", moves: "nf3 d5"},
	{ECO: "A07", Name: "King's Indian Attack", moves: "nf3 d5 g3"},
	{ECO: "A09", Name: "Réti Opening, Advance Variation", moves: "nf3 d5 c4 d4"},
	{ECO: "A10", Name: "English Opening", moves: "c4"},
	{ECO: "A13", Name: "English Opening, Agincourt Defense", moves: "c4 e6"},
	{ECO: "A15", Name: "English Opening, Anglo-Indian Defense", moves: "c4 nf6"},
	{ECO: "A20", Name: "English Opening, King's English Variation", moves: "c4 e5"},
	{ECO: "A22", Name: "English Opening, King's English, Two Knights", moves: "c4 e5 nc3 nf6"},
	{ECO: "A30", Name: "English Opening, Symmetrical Variation", moves: "c4 c5"},
	{ECO: "A35", Name: "English Opening, Symmetrical, Two Knights", moves: "c4 c5 nc3 nc6"},
	{ECO: "A40", Name: "Queen's Pawn Game", moves: "d4"},
	{ECO: "A43", Name: "Benoni Defense, Old Benoni", moves: "d4 c5"},
	{ECO: "A45", Name: "Indian Defense", moves: "d4 nf6"},
	{ECO: "A46", Name: "Indian Defense, Knights Variation", moves: "d4 nf6 nf3"},
	{ECO: "A48", Name: "London System", moves: "d4 nf6 nf3 g6 bf4"},
	{ECO: "A52", Name: "Budapest Defense", moves: "d4 nf6 c4 e5"},
	{ECO: "A53", Name: "Old Indian Defense", moves: "d4 nf6 c4 d6"},
	{ECO: "A56", Name: "Benoni Defense", moves: "d4 nf6 c4 c5"},
	{ECO: "A57", Name: "Benko Gambit", moves: "d4 nf6 c4 c5 d5 b5"},
	{ECO: "A65", Name: "Benoni Defense, King's Pawn Line", moves: "d4 nf6 c4 c5 d5 e6 nc3 exd5 cxd5 d6 e4"},
	{ECO: "A80", Name: "Dutch Defense", moves: "d4 f5"},
	{ECO: "A85", Name: "Dutch Defense, Queen's Knight Variation", moves: "d4 f5 c4 nf6 nc3"},
	{ECO: "A90", Name: "Dutch Defense, Classical Variation", moves: "d4 f5 c4 nf6 g3 e6 bg2"},

	// B: half-open games except French
	{ECO: "B00", Name: "Nimzowitsch Defense", moves: "e4 nc6"},
	{ECO: "B00", Name: "Owen Defense", moves: "e4 b6"},
	{ECO: "B01", Name: "Scandinavian Defense", moves: "e4 d5"},
	{ECO: "B01", Name: "Scandinavian Defense, Mieses-Kotroc Variation", moves: "e4 d5 exd5 qxd5"},
	{ECO: "B02", Name: "Alekhine Defense", moves: "e4 nf6"},
	{ECO: "B03", Name: "Alekhine Defense", moves: "e4 nf6 e5 nd5 d4"},
	{ECO: "B04", Name: "Alekhine Defense, Modern Variation", moves: "e4 nf6 e5 nd5 d4 d6 nf3"},
	{ECO: "B06", Name: "Modern Defense", moves: "e4 g6"},
	{ECO: "B07", Name: "Pirc Defense", moves: "e4 d6"},
	{ECO: "B08", Name: "Pirc Defense, Classical Variation", moves: "e4 d6 d4 nf6 nc3 g6 nf3"},
	{ECO: "B09", Name: "Pirc Defense, Austrian Attack", moves: "e4 d6 d4 nf6 nc3 g6 f4"},
	{ECO: "B10", Name: "Caro-Kann Defense", moves: "e4 c6"},
	{ECO: "B12", Name: "Caro-Kann Defense, Advance Variation", moves: "e4 c6 d4 d5 e5"},
	{ECO: "B13", Name: "Caro-Kann Defense, Exchange Variation", moves: "e4 c6 d4 d5 exd5"},
	{ECO: "B15", Name: "Caro-Kann Defense", moves: "e4 c6 d4 d5 nc3"},
	{ECO: "B17", Name: "Caro-Kann Defense, Karpov Variation", moves: "e4 c6 d4 d5 nc3 dxe4 nxe4 nd7"},
	{ECO: "B18", Name: "Caro-Kann Defense, Classical Variation", moves: "e4 c6 d4 d5 nc3 dxe4 nxe4 bf5"},
	{ECO: "B20", Name: "Sicilian Defense", moves: "e4 c5"},
	{ECO: "B21", Name: "Sicilian Defense, Smith-Morra Gambit", moves: "e4 c5 d4 cxd4 c3"},
	{ECO: "B22", Name: "Sicilian Defense, Alapin Variation", moves: "e4 c5 c3"},
	{ECO: "B23", Name: "Sicilian Defense, Closed", moves: "e4 c5 nc3"},
	{ECO: "B27", Name: "Sicilian Defense", moves: "e4 c5 nf3"},
	{ECO: "B30", Name: "Sicilian Defense, Old Sicilian", moves: "e4 c5 nf3 nc6"},
	{ECO: "B30", Name: "Sicilian Defense, Nyezhmetdinov-Rossolimo Attack", moves: "e4 c5 nf3 nc6 bb5"},
	{ECO: "B32", Name: "Sicilian Defense, Open", moves: "e4 c5 nf3 nc6 d4"},
	{ECO: "B33", Name: "Sicilian Defense, Sveshnikov Variation", moves: "e4 c5 nf3 nc6 d4 cxd4 nxd4 nf6 nc3 e5"},
	{ECO: "B40", Name: "Sicilian Defense, French Variation", moves: "e4 c5 nf3 e6"},
	{ECO: "B41", Name: "Sicilian Defense, Kan Variation", moves: "e4 c5 nf3 e6 d4 cxd4 nxd4 a6"},
	{ECO: "B44", Name: "Sicilian Defense, Taimanov Variation", moves: "e4 c5 nf3 e6 d4 cxd4 nxd4 nc6"},
	{ECO: "B50", Name: "Sicilian Defense", moves: "e4 c5 nf3 d6"},
	{ECO: "B51", Name: "Sicilian Defense, Moscow Variation", moves: "e4 c5 nf3 d6 bb5"},
	{ECO: "B54", Name: "Sicilian Defense, Open", moves: "e4 c5 nf3 d6 d4 cxd4 nxd4"},
	{ECO: "B56", Name: "Sicilian Defense, Open", moves: "e4 c5 nf3 d6 d4 cxd4 nxd4 nf6 nc3"},
	{ECO: "B70", Name: "Sicilian Defense, Dragon Variation", moves: "e4 c5 nf3 d6 d4 cxd4 nxd4 nf6 nc3 g6"},
	{ECO: "B76", Name: "Sicilian Defense, Dragon, Yugoslav Attack", moves: "e4 c5 nf3 d6 d4 cxd4 nxd4 nf6 nc3 g6 be3 bg7 f3"},
	{ECO: "B80", Name: "Sicilian Defense, Scheveningen Variation", moves: "e4 c5 nf3 d6 d4 cxd4 nxd4 nf6 nc3 e6"},
	{ECO: "B90", Name: "Sicilian Defense, Najdorf Variation", moves: "e4 c5 nf3 d6 d4 cxd4 nxd4 nf6 nc3 a6"},

	// C: French and open games
	{ECO: "C00", Name: "French Defense", moves: "e4 e6"},
	{ECO: "C01", Name: "French Defense, Exchange Variation", moves: "e4 e6 d4 d5 exd5"},
	{ECO: "C02", Name: "French Defense, Advance Variation", moves: "e4 e6 d4 d5 e5"},
	{ECO: "C03", Name: "French Defense, Tarrasch Variation", moves: "e4 e6 d4 d5 nd2"},
	{ECO: "C10", Name: "French Defense, Paulsen Variation", moves: "e4 e6 d4 d5 nc3"},
	{ECO: "C11", Name: "French Defense, Classical Variation", moves: "e4 e6 d4 d5 nc3 nf6"},
	{ECO: "C15", Name: "French Defense, Winawer Variation", moves: "e4 e6 d4 d5 nc3 bb4"},
	{ECO: "C16", Name: "French Defense, Winawer, Advance Variation", moves: "e4 e6 d4 d5 nc3 bb4 e5"},
	{ECO: "C20", Name: "King's Pawn Game", moves: "e4 e5"},
	{ECO: "C21", Name: "Center Game", moves: "e4 e5 d4 exd4"},
	{ECO: "C23", Name: "Bishop's Opening", moves: "e4 e5 bc4"},
	{ECO: "C25", Name: "Vienna Game", moves: "e4 e5 nc3"},
	{ECO: "C30", Name: "King's Gambit", moves: "e4 e5 f4"},
	{ECO: "C33", Name: "King's Gambit Accepted", moves: "e4 e5 f4 exf4"},
	{ECO: "C34", Name: "King's Gambit Accepted, King's Knight Gambit", moves: "e4 e5 f4 exf4 nf3"},
	{ECO: "C36", Name: "King's Gambit Accepted, Modern Defense", moves: "e4 e5 f4 exf4 nf3 d5"},
	{ECO: "C40", Name: "King's Knight Opening", moves: "e4 e5 nf3"},
	{ECO: "C41", Name: "Philidor Defense", moves: "e4 e5 nf3 d6"},
	{ECO: "C42", Name: "Russian Game", moves: "e4 e5 nf3 nf6"},
	{ECO: "C44", Name: "King's Pawn Game", moves: "e4 e5 nf3 nc6"},
	{ECO: "C45", Name: "Scotch Game", moves: "e4 e5 nf3 nc6 d4 exd4 nxd4"},
	{ECO: "C46", Name: "Three Knights Opening", moves: "e4 e5 nf3 nc6 nc3"},
	{ECO: "C47", Name: "Four Knights Game", moves: "e4 e5 nf3 nc6 nc3 nf6"},
	{ECO: "C48", Name: "Four Knights Game, Spanish Variation", moves: "e4 e5 nf3 nc6 nc3 nf6 bb5"},
	{ECO: "C50", Name: "Italian Game", moves: "e4 e5 nf3 nc6 bc4"},
	{ECO: "C51", Name: "Italian Game, Evans Gambit", moves: "e4 e5 nf3 nc6 bc4 bc5 b4"},
	{ECO: "C53", Name: "Italian Game, Classical Variation", moves: "e4 e5 nf3 nc6 bc4 bc5 c3"},
	{ECO: "C55", Name: "Italian Game, Two Knights Defense", moves: "e4 e5 nf3 nc6 bc4 nf6"},
	{ECO: "C57", Name: "Italian Game, Two Knights Defense, Knight Attack", moves: "e4 e5 nf3 nc6 bc4 nf6 ng5 d5 exd5"},
	{ECO: "C60", Name: "Ruy Lopez", moves: "e4 e5 nf3 nc6 bb5"},
	{ECO: "C63", Name: "Ruy Lopez, Schliemann Defense", moves: "e4 e5 nf3 nc6 bb5 f5"},
	{ECO: "C64", Name: "Ruy Lopez, Classical Variation", moves: "e4 e5 nf3 nc6 bb5 bc5"},
	{ECO: "C65", Name: "Ruy Lopez, Berlin Defense", moves: "e4 e5 nf3 nc6 bb5 nf6"},
	{ECO: "C67", Name: "Ruy Lopez, Berlin Defense, Open Variation", moves: "e4 e5 nf3 nc6 bb5 nf6 o-o nxe4"},
	{ECO: "C68", Name: "Ruy Lopez, Exchange Variation", moves: "e4 e5 nf3 nc6 bb5 a6 bxc6"},
	{ECO: "C70", Name: "Ruy Lopez, Morphy Defense", moves: "e4 e5 nf3 nc6 bb5 a6"},
	{ECO: "C77", Name: "Ruy Lopez, Morphy Defense", moves: "e4 e5 nf3 nc6 bb5 a6 ba4 nf6"},
	{ECO: "C84", Name: "Ruy Lopez, Closed", moves: "e4 e5 nf3 nc6 bb5 a6 ba4 nf6 o-o be7"},
	{ECO: "C88", Name: "Ruy Lopez, Closed", moves: "e4 e5 nf3 nc6 bb5 a6 ba4 nf6 o-o be7 re1 b5 bb3"},
	{ECO: "C92", Name: "Ruy Lopez, Closed", moves: "e4 e5 nf3 nc6 bb5 a6 ba4 nf6 o-o be7 re1 b5 bb3 d6 c3 o-o h3"},

	// D: closed games and Grünfeld
	{ECO: "D00", Name: "Queen's Pawn Game", moves: "d4 d5"},
	{ECO: "D01", Name: "Richter-Veresov Attack", moves: "d4 d5 nc3 nf6 bg5"},
	{ECO: "D02", Name: "Queen's Pawn Game, Zukertort Variation", moves: "d4 d5 nf3"},
	{ECO: "D02", Name: "Queen's Pawn Game, London System", moves: "d4 d5 nf3 nf6 bf4"},
	{ECO: "D04", Name: "Queen's Pawn Game, Colle System", moves: "d4 d5 nf3 nf6 e3"},
	{ECO: "D06", Name: "Queen's Gambit", moves: "d4 d5 c4"},
	{ECO: "D07", Name: "Queen's Gambit Declined, Chigorin Defense", moves: "d4 d5 c4 nc6"},
	{ECO: "D08", Name: "Queen's Gambit Declined, Albin Countergambit", moves: "d4 d5 c4 e5"},
	{ECO: "D10", Name: "Slav Defense", moves: "d4 d5 c4 c6"},
	{ECO: "D11", Name: "Slav Defense, Modern Line", moves: "d4 d5 c4 c6 nf3"},
	{ECO: "D15", Name: "Slav Defense, Three Knights Variation", moves: "d4 d5 c4 c6 nf3 nf6 nc3"},
	{ECO: "D20", Name: "Queen's Gambit Accepted", moves: "d4 d5 c4 dxc4"},
	{ECO: "D30", Name: "Queen's Gambit Declined", moves: "d4 d5 c4 e6"},
	{ECO: "D31", Name: "Queen's Gambit Declined", moves: "d4 d5 c4 e6 nc3"},
	{ECO: "D35", Name: "Queen's Gambit Declined, Exchange Variation", moves: "d4 d5 c4 e6 nc3 nf6 cxd5"},
	{ECO: "D37", Name: "Queen's Gambit Declined, Three Knights Variation", moves: "d4 d5 c4 e6 nc3 nf6 nf3"},
	{ECO: "D43", Name: "Semi-Slav Defense", moves: "d4 d5 c4 e6 nc3 nf6 nf3 c6"},
	{ECO: "D53", Name: "Queen's Gambit Declined", moves: "d4 d5 c4 e6 nc3 nf6 bg5 be7"},
	{ECO: "D80", Name: "Grünfeld Defense", moves: "d4 nf6 c4 g6 nc3 d5"},
	{ECO: "D85", Name: "Grünfeld Defense, Exchange Variation", moves: "d4 nf6 c4 g6 nc3 d5 cxd5 nxd5 e4"},

	// E: Indian defenses
	{ECO: "E00", Name: "Catalan Opening", moves: "d4 nf6 c4 e6 g3"},
	{ECO: "E04", Name: "Catalan Opening, Open Defense", moves: "d4 nf6 c4 e6 g3 d5 bg2 dxc4 nf3"},
	{ECO: "E11", Name: "Bogo-Indian Defense", moves: "d4 nf6 c4 e6 nf3 bb4"},
	{ECO: "E12", Name: "Queen's Indian Defense", moves: "d4 nf6 c4 e6 nf3 b6"},
	{ECO: "E15", Name: "Queen's Indian Defense, Fianchetto Variation", moves: "d4 nf6 c4 e6 nf3 b6 g3"},
	{ECO: "E20", Name: "Nimzo-Indian Defense", moves: "d4 nf6 c4 e6 nc3 bb4"},
	{ECO: "E32", Name: "Nimzo-Indian Defense, Classical Variation", moves: "d4 nf6 c4 e6 nc3 bb4 qc2"},
	{ECO: "E60", Name: "King's Indian Defense", moves: "d4 nf6 c4 g6"},
	{ECO: "E61", Name: "King's Indian Defense", moves: "d4 nf6 c4 g6 nc3"},
	{ECO: "E62", Name: "King's Indian Defense, Fianchetto Variation", moves: "d4 nf6 c4 g6 nc3 bg7 nf3 d6 g3"},
	{ECO: "E70", Name: "King's Indian Defense, Normal Variation", moves: "d4 nf6 c4 g6 nc3 bg7 e4"},
	{ECO: "E76", Name: "King's Indian Defense, Four Pawns Attack", moves: "d4 nf6 c4 g6 nc3 bg7 e4 d6 f4"},
	{ECO: "E90", Name: "King's Indian Defense, Normal Variation", moves: "d4 nf6 c4 g6 nc3 bg7 e4 d6 nf3"},
	{ECO: "E97", Name: "King's Indian Defense, Orthodox, Aronin-Taimanov", moves: "d4 nf6 c4 g6 nc3 bg7 e4 d6 nf3 o-o be2 e5 o-o nc6 d5 ne7"},
}

// firstMoveFallback classifies games whose line never reached a known
// reference prefix, keyed on the first move alone. This is also the only
// place a lone "e4" resolves.
var firstMoveFallback = map[string]Opening{
	"e4":  {ECO: "B00", Name: "King's Pawn Opening"},
	"d4":  {ECO: "A40", Name: "Queen's Pawn Game"},
	"c4":  {ECO: "A10", Name: "English Opening"},
	"nf3": {ECO: "A04", Name: "Zukertort Opening"},
	"g3":  {ECO: "A00", Name: "King's Fianchetto Opening"},
	"b3":  {ECO: "A01", Name: "Nimzo-Larsen Attack"},
	"f4":  {ECO: "A02", Name: "Bird Opening"},
	"e3":  {ECO: "A00", Name: "Van't Kruijs Opening"},
	"d3":  {ECO: "A00", Name: "Mieses Opening"},
	"c3":  {ECO: "A00", Name: "Saragossa Opening"},
	"b4":  {ECO: "A00", Name: "Polish Opening"},
	"g4":  {ECO: "A00", Name: "Grob Opening"},
	"f3":  {ECO: "A00", Name: "Barnes Opening"},
	"a3":  {ECO: "A00", Name: "Anderssen's Opening"},
	"a4":  {ECO: "A00", Name: "Ware Opening"},
	"h3":  {ECO: "A00", Name: "Clemenz Opening"},
	"h4":  {ECO: "A00", Name: "Kadas Opening"},
	"nc3": {ECO: "A00", Name: "Van Geet Opening"},
	"na3": {ECO: "A00", Name: "Sodium Attack"},
	"nh3": {ECO: "A00", Name: "Amar Opening"},
}
