package validate

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/stageupapp/stageup-server/internal/domain"
)

// maxMetadataBlock flags anomalously large embedded metadata segments.
// Legitimate EXIF and ICC payloads are small; a multi-hundred-kilobyte
// APP segment is a common smuggling vector.
const maxMetadataBlock = 256 * 1024

// scriptSignatures are byte patterns that have no business inside an image.
// A match is a heuristic risk signal, not proof of malice, but the upload is
// rejected either way: nothing legitimate embeds markup in pixel data.
var scriptSignatures = [][]byte{
	[]byte("<script"),
	[]byte("</script"),
	[]byte("javascript:"),
	[]byte("<?php"),
	[]byte("<!doctype html"),
	[]byte("<html"),
	[]byte("<iframe"),
	[]byte("onerror="),
	[]byte("onload="),
	[]byte("eval("),
}

// executableMagic marks buffers that are executables wearing an image extension.
var executableMagic = [][]byte{
	{0x4D, 0x5A},             // MZ (PE)
	{0x7F, 0x45, 0x4C, 0x46}, // ELF
	{0xCF, 0xFA, 0xED, 0xFE}, // Mach-O 64
}

// scanContent runs the heuristic security scan over the raw buffer.
func (v *Validator) scanContent(result *domain.ValidationResult, data []byte, declared string) {
	if len(data) == 0 {
		return
	}

	for _, magic := range executableMagic {
		if bytes.HasPrefix(data, magic) {
			result.AddError("file content matches an executable signature")
			break
		}
	}

	lowered := bytes.ToLower(data)
	for _, sig := range scriptSignatures {
		if bytes.Contains(lowered, sig) {
			result.AddError(fmt.Sprintf("file contains embedded script pattern %q", sig))
		}
	}

	// Cross-check declared type against content sniffing. Decoding already
	// catches spoofed images; this additionally catches non-image payloads
	// that never reached the decode stage.
	sniffed := mimetype.Detect(data)
	if !strings.HasPrefix(sniffed.String(), "image/") {
		result.AddError(fmt.Sprintf(
			"file content sniffs as %s, not an image", sniffed.String()))
	}

	v.scanMetadataBlocks(result, data)
}

// scanMetadataBlocks walks format-level containers looking for oversized
// embedded metadata (EXIF, ICC, ancillary text chunks).
func (v *Validator) scanMetadataBlocks(result *domain.ValidationResult, data []byte) {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		v.scanJPEGSegments(result, data)
	case bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		v.scanPNGChunks(result, data)
	}
}

// scanJPEGSegments checks APP1 (EXIF) and APP2 (ICC) marker segments.
func (v *Validator) scanJPEGSegments(result *domain.ValidationResult, data []byte) {
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return
		}
		marker := data[i+1]

		// Standalone markers without a length field.
		if marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD9) {
			i += 2
			continue
		}
		// Start of scan: entropy-coded data follows, stop walking.
		if marker == 0xDA {
			return
		}

		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if segLen < 2 {
			return
		}

		// APP1 carries EXIF, APP2 carries ICC profiles.
		if (marker == 0xE1 || marker == 0xE2) && segLen > maxMetadataBlock {
			result.AddError(fmt.Sprintf(
				"embedded metadata segment of %d bytes exceeds %d byte limit", segLen, maxMetadataBlock))
		}

		i += 2 + segLen
	}
}

// scanPNGChunks checks ancillary chunks that can carry arbitrary payloads.
func (v *Validator) scanPNGChunks(result *domain.ValidationResult, data []byte) {
	i := 8
	for i+8 <= len(data) {
		chunkLen := int(binary.BigEndian.Uint32(data[i : i+4]))
		chunkType := string(data[i+4 : i+8])

		switch chunkType {
		case "iCCP", "tEXt", "zTXt", "iTXt", "eXIf":
			if chunkLen > maxMetadataBlock {
				result.AddError(fmt.Sprintf(
					"embedded %s chunk of %d bytes exceeds %d byte limit", chunkType, chunkLen, maxMetadataBlock))
			}
		case "IEND":
			return
		}

		// Length + type + data + CRC.
		advance := 12 + chunkLen
		if advance <= 0 || i+advance < i {
			return
		}
		i += advance
	}
}
