package machine

// Page identifies one physical page frame.
type Page struct {
	PPN int `json:"ppn"`
}

// TranslationEntry maps a single virtual page onto a physical page together
// with its access-control bits. Entries with Valid=false are unmapped and
// their remaining fields carry no meaning.
type TranslationEntry struct {
	VPN        int  `json:"vpn"`
	PPN        int  `json:"ppn"`
	Valid      bool `json:"valid"`
	ReadOnly   bool `json:"readOnly"`
	Referenced bool `json:"referenced"`
	Dirty      bool `json:"dirty"`
}
