package authoring

// Mode tags a session with the operation set it accepts.
type Mode string

const (
	// ModeRoute places POIs in visiting order and derives the path from them.
	ModeRoute Mode = "route"
	// ModeSinglePlacement holds at most one pending POI, replaced on every placement.
	ModeSinglePlacement Mode = "single"
)

// Op names an authoring operation for capability checks.
type Op string

const (
	OpPlace   Op = "place"
	OpMove    Op = "move"
	OpReorder Op = "reorder"
	OpEdit    Op = "edit"
	OpImages  Op = "images"
	OpAudio   Op = "audio"
	OpDelete  Op = "delete"
	OpSelect  Op = "select"
	OpClear   Op = "clear"
	OpLoad    Op = "load"
	OpCompute Op = "compute"
)

var capabilities = map[Mode]map[Op]bool{
	ModeRoute: {
		OpPlace: true, OpMove: true, OpReorder: true, OpEdit: true, OpImages: true, OpAudio: true,
		OpDelete: true, OpSelect: true, OpClear: true, OpLoad: true, OpCompute: true,
	},
	ModeSinglePlacement: {
		OpPlace: true, OpMove: true, OpEdit: true, OpImages: true, OpAudio: true,
		OpDelete: true, OpSelect: true, OpClear: true, OpLoad: true,
	},
}

func (m Mode) Valid() bool {
	_, ok := capabilities[m]
	return ok
}

// Allows reports whether op is part of the mode's operation set.
func (m Mode) Allows(op Op) bool {
	return capabilities[m][op]
}

// Direction moves a POI one step in visiting order.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Field is an editable text field of a POI.
type Field string

const (
	Title       Field = "title"
	Description Field = "description"
)
