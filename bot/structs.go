package bot

type Color int

// Embed colors per notification category.
const (
	Red     Color = 0xED4245 // message deleted
	Gold    Color = 0xF1C40F // message edited
	Green   Color = 0x57F287 // roles added
	DarkRed Color = 0x992D22 // user banned
	Grey    Color = 0x95A5A6 // user left
)
