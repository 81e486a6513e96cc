package protocol

import "time"

// ProtocolVersion is reported by the handshake
const ProtocolVersion = "1"

// Method catalog
const (
	MethodHandshake = "core.handshake"

	MethodStorageGet            = "storage.get"
	MethodStorageSet            = "storage.set"
	MethodStorageDelete         = "storage.delete"
	MethodStorageListKeys       = "storage.listKeys"
	MethodStorageGetAllByPrefix = "storage.getAllByPrefix"
	MethodStorageSetMany        = "storage.setMany"

	MethodNetRequest = "net.request"

	MethodStyleAdd           = "style.add"
	MethodStyleRemove        = "style.remove"
	MethodStyleClearByPrefix = "style.clearByPrefix"

	MethodClipboardSetText = "clipboard.setText"

	MethodLog = "log"
)

// Default client deadlines
const (
	DefaultCallTimeout      = 15 * time.Second
	DefaultHandshakeTimeout = 8 * time.Second
)

// DefaultEventName is the document event used by the event transport
const DefaultEventName = "worldbridge:message"

// Catalog lists every method the bridge serves
func Catalog() []string {
	return []string{
		MethodHandshake,
		MethodStorageGet,
		MethodStorageSet,
		MethodStorageDelete,
		MethodStorageListKeys,
		MethodStorageGetAllByPrefix,
		MethodStorageSetMany,
		MethodNetRequest,
		MethodStyleAdd,
		MethodStyleRemove,
		MethodStyleClearByPrefix,
		MethodClipboardSetText,
		MethodLog,
	}
}
