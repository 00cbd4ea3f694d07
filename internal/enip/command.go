package enip

import "fmt"

// Command is an encapsulation command code.
type Command uint16

// Encapsulation command codes
const (
	CommandNOP               Command = 0x0000
	CommandListServices      Command = 0x0004
	CommandListIdentity      Command = 0x0063
	CommandListInterfaces    Command = 0x0064
	CommandRegisterSession   Command = 0x0065
	CommandUnregisterSession Command = 0x0066
	CommandSendRRData        Command = 0x006F
	CommandSendUnitData      Command = 0x0070
	CommandIndicateStatus    Command = 0x0072
	CommandCancel            Command = 0x0073
)

func (c Command) String() string {
	switch c {
	case CommandNOP:
		return "NOP"
	case CommandListServices:
		return "ListServices"
	case CommandListIdentity:
		return "ListIdentity"
	case CommandListInterfaces:
		return "ListInterfaces"
	case CommandRegisterSession:
		return "RegisterSession"
	case CommandUnregisterSession:
		return "UnregisterSession"
	case CommandSendRRData:
		return "SendRRData"
	case CommandSendUnitData:
		return "SendUnitData"
	case CommandIndicateStatus:
		return "IndicateStatus"
	case CommandCancel:
		return "Cancel"
	default:
		return fmt.Sprintf("Unknown(0x%04X)", uint16(c))
	}
}

// Known reports whether c is a defined encapsulation command.
func (c Command) Known() bool {
	switch c {
	case CommandNOP, CommandListServices, CommandListIdentity, CommandListInterfaces,
		CommandRegisterSession, CommandUnregisterSession, CommandSendRRData,
		CommandSendUnitData, CommandIndicateStatus, CommandCancel:
		return true
	}
	return false
}

// Status is an encapsulation status code.
type Status uint32

// Encapsulation status codes
const (
	StatusSuccess              Status = 0x0000
	StatusInvalidCommand       Status = 0x0001
	StatusInsufficientMemory   Status = 0x0002
	StatusIncorrectData        Status = 0x0003
	StatusInvalidSessionHandle Status = 0x0064
	StatusInvalidLength        Status = 0x0065
	StatusUnsupportedProtocol  Status = 0x0069
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusInvalidCommand:
		return "Invalid Command"
	case StatusInsufficientMemory:
		return "Insufficient Memory"
	case StatusIncorrectData:
		return "Incorrect Data"
	case StatusInvalidSessionHandle:
		return "Invalid Session Handle"
	case StatusInvalidLength:
		return "Invalid Length"
	case StatusUnsupportedProtocol:
		return "Unsupported Protocol"
	default:
		return fmt.Sprintf("Unknown(0x%08X)", uint32(s))
	}
}
