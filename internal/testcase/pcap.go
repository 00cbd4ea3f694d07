package testcase

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/tonylturner/enipfuzz/internal/enip"
	"github.com/tonylturner/enipfuzz/internal/errors"
)

// magicPCAPNG is the pcapng section header block type.
const magicPCAPNG = 0x0a0d0d0a

// Frame is one client-to-server ENIP message recovered from a capture.
type Frame struct {
	Data      []byte // full message, header included
	Command   enip.Command
	Timestamp time.Time
	SrcIP     string
	DstIP     string
	SrcPort   uint16
	DstPort   uint16
}

type captureSource interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

func openCapture(r io.Reader) (captureSource, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("%w: read capture header: %w", errors.ErrMalformedInput, err)
	}
	if binary.LittleEndian.Uint32(magic) == magicPCAPNG {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, fmt.Errorf("%w: open pcapng: %w", errors.ErrMalformedInput, err)
		}
		return ng, nil
	}
	pr, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("%w: open pcap: %w", errors.ErrMalformedInput, err)
	}
	return pr, nil
}

// ExtractRequests returns the ENIP messages sent to serverPort over TCP, in
// capture order. Payloads are reassembled per flow by concatenation and
// split on the header length field. RegisterSession requests are skipped
// since the delivering tool negotiates its own session. A trailing
// fragment of at least one header that never completes is returned as a
// final frame so truncated fuzz cases are not lost.
func ExtractRequests(r io.Reader, serverPort uint16) ([]Frame, error) {
	src, err := openCapture(r)
	if err != nil {
		return nil, err
	}

	type flow struct {
		buf  []byte
		meta Frame
	}
	flows := make(map[string]*flow)
	var order []string
	var frames []Frame

	packetSource := gopacket.NewPacketSource(src, src.LinkType())
	for packet := range packetSource.Packets() {
		tcpLayer := packet.Layer(layers.LayerTypeTCP)
		if tcpLayer == nil {
			continue
		}
		tcp, _ := tcpLayer.(*layers.TCP)
		if uint16(tcp.DstPort) != serverPort || len(tcp.Payload) == 0 {
			continue
		}

		meta := Frame{
			Timestamp: packet.Metadata().Timestamp,
			SrcPort:   uint16(tcp.SrcPort),
			DstPort:   uint16(tcp.DstPort),
		}
		if netLayer := packet.NetworkLayer(); netLayer != nil {
			meta.SrcIP = netLayer.NetworkFlow().Src().String()
			meta.DstIP = netLayer.NetworkFlow().Dst().String()
		}
		key := fmt.Sprintf("%s:%d->%s:%d", meta.SrcIP, meta.SrcPort, meta.DstIP, meta.DstPort)

		f, ok := flows[key]
		if !ok {
			f = &flow{}
			flows[key] = f
			order = append(order, key)
		}
		if len(f.buf) == 0 {
			f.meta = meta
		}
		f.buf = append(f.buf, tcp.Payload...)

		var parsed []Frame
		parsed, f.buf = splitFrames(f.buf, f.meta)
		frames = append(frames, parsed...)
		if len(parsed) > 0 && len(f.buf) > 0 {
			f.meta = meta
		}
	}

	for _, key := range order {
		f := flows[key]
		if len(f.buf) >= enip.HeaderSize {
			frames = appendFrame(frames, f.buf, f.meta)
		}
	}

	return frames, nil
}

func splitFrames(buf []byte, meta Frame) ([]Frame, []byte) {
	var frames []Frame
	for len(buf) >= enip.HeaderSize {
		length := binary.LittleEndian.Uint16(buf[2:4])
		total := enip.HeaderSize + int(length)
		if total > len(buf) {
			break
		}
		frames = appendFrame(frames, buf[:total], meta)
		buf = buf[total:]
	}
	rest := make([]byte, len(buf))
	copy(rest, buf)
	return frames, rest
}

func appendFrame(frames []Frame, data []byte, meta Frame) []Frame {
	cmd := enip.Command(binary.LittleEndian.Uint16(data[0:2]))
	if cmd == enip.CommandRegisterSession {
		return frames
	}
	frame := meta
	frame.Command = cmd
	frame.Data = make([]byte, len(data))
	copy(frame.Data, data)
	return append(frames, frame)
}
