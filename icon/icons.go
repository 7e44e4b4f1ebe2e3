package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Lua Icon = iota + 1
	Fail
	Success
	Warn
	Skip
	Download
	Merge
	Process
	Progress
	Link
	Mark
)

var icons = map[Icon]*iconDef{
	Lua: {
		emoji:   "🌙",
		nerd:    "",
		plain:   "Lua",
		kaomoji: "(=^･ω･^=)",
		squares: "▣",
	},
	Fail: {
		emoji:   "💀",
		nerd:    "",
		plain:   "X",
		kaomoji: "(×_×)",
		squares: "■",
	},
	Success: {
		emoji:   "🎉",
		nerd:    "",
		plain:   "OK",
		kaomoji: "(＾▽＾)",
		squares: "□",
	},
	Warn: {
		emoji:   "⚠️",
		nerd:    "",
		plain:   "!",
		kaomoji: "(・_・;)",
		squares: "▨",
	},
	Skip: {
		emoji:   "⏭️",
		nerd:    "",
		plain:   "=",
		kaomoji: "(￣ー￣)",
		squares: "▭",
	},
	Download: {
		emoji:   "📥",
		nerd:    "",
		plain:   "v",
		kaomoji: "(ﾉ◕ヮ◕)ﾉ",
		squares: "▼",
	},
	Merge: {
		emoji:   "🧬",
		nerd:    "",
		plain:   "+",
		kaomoji: "(っ˘ω˘ς)",
		squares: "▤",
	},
	Process: {
		emoji:   "⚙️",
		nerd:    "",
		plain:   "*",
		kaomoji: "(ง •̀_•́)ง",
		squares: "▦",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "",
		plain:   "~",
		kaomoji: "(。・ω・。)",
		squares: "▧",
	},
	Link: {
		emoji:   "🔗",
		nerd:    "",
		plain:   "@",
		kaomoji: "(・∀・)",
		squares: "▥",
	},
	Mark: {
		emoji:   "📌",
		nerd:    "",
		plain:   "#",
		kaomoji: "(•̀ᴗ•́)و",
		squares: "▪",
	},
}
