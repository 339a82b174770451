package protocol

import "slotsort.ai/internal/inventory"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	PlayerName      string            `json:"player_name"`
	Capabilities    HelloCapabilities `json:"capabilities"`
	Auth            *HelloAuth        `json:"auth,omitempty"`
}

type HelloCapabilities struct {
	Reorder bool `json:"reorder,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type               string             `json:"type"`
	ProtocolVersion    string             `json:"protocol_version"`
	SessionID          string             `json:"session_id"`
	PlayerID           string             `json:"player_id"`
	ResumeToken        string             `json:"resume_token"`
	ServerCapabilities ServerCapabilities `json:"server_capabilities"`
	Catalogs           CatalogDigests     `json:"catalogs"`
	// Integrated is set when the authority runs in-process or on loopback.
	Integrated bool `json:"integrated,omitempty"`
}

type ServerCapabilities struct {
	Reorder bool `json:"reorder,omitempty"`
}

type CatalogDigests struct {
	ItemPalette    DigestRef `json:"item_palette"`
	ItemDefs       string    `json:"item_defs_digest"`
	CreativeDigest string    `json:"creative_digest"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// OPEN (client -> server): open a named container next to the player.
type OpenMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Container       string `json:"container"`
}

// CLOSE (both directions): the screen with SyncID is gone.
type CloseMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SyncID          int    `json:"sync_id"`
}

// Slot sections; slots of one section share a backing inventory.
const (
	SectionContainer = "CONTAINER"
	SectionMain      = "MAIN"
	SectionHotbar    = "HOTBAR"
	SectionArmor     = "ARMOR"
	SectionOffhand   = "OFFHAND"
)

type SlotState struct {
	ID        int             `json:"id"`
	Inventory string          `json:"inventory"`
	Section   string          `json:"section"`
	Stack     inventory.Stack `json:"stack"`
}

// SCREEN (server -> client): full contents of an open screen.
type ScreenMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	SyncID          int             `json:"sync_id"`
	StateID         int             `json:"state_id"`
	Title           string          `json:"title,omitempty"`
	Slots           []SlotState     `json:"slots"`
	Cursor          inventory.Stack `json:"cursor"`
}

// SLOT_UPDATE (server -> client)
type SlotUpdateMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	SyncID          int             `json:"sync_id"`
	StateID         int             `json:"state_id"`
	Slot            int             `json:"slot"`
	Stack           inventory.Stack `json:"stack"`
}

// CURSOR (server -> client): the stack held on the cursor changed.
type CursorMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	SyncID          int             `json:"sync_id"`
	Stack           inventory.Stack `json:"stack"`
}

// CONFIRM (server -> client): one CLICK or REORDER has been processed.
type ConfirmMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SyncID          int    `json:"sync_id"`
	StateID         int    `json:"state_id"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
}

// CLICK (client -> server)
type ClickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SyncID          int    `json:"sync_id"`
	Slot            int    `json:"slot"`
	Button          int    `json:"button"`
	Action          string `json:"action"`
}

// REORDER (client -> server); see reorder.go.
type ReorderMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	SyncID          int     `json:"sync_id"`
	SlotMappings    []int32 `json:"slot_mappings"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
