package styles

// Nerd Font icons (requires a Nerd Font to display correctly)
const (
	IconVersion   = "\uf02b" // tag
	IconGitBranch = "\ue725" // git branch
	IconCalendar  = "\uf073" // calendar
	IconGithub    = "\uf09b" // github
	IconGo        = "\ue627" // go gopher
	IconArrow     = "\uf061" // arrow right

	IconCheck   = "\uf00c" // check
	IconX       = "\uf00d" // x
	IconWarning = "\uf071" // warning
	IconInfo    = "\uf05a" // info

	IconConfig   = "\ue615" // config
	IconDatabase = "\uf1c0" // database
	IconDesktop  = "\uf108" // desktop
	IconClock    = "\uf017" // clock
	IconCursor   = "\uf054" // chevron-right

	// Appearance
	IconSun  = "\uf185" // sun
	IconMoon = "\uf186" // moon
	IconSync = "\uf021" // refresh
)
