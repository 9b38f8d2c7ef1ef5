// Package sniffer detects image formats from magic bytes. Product image
// placement trusts the bytes, not the declared content type or filename.
package sniffer

import (
	"bytes"
	"errors"
)

var ErrUnknownType = errors.New("unknown media type")

type Result struct {
	Ext  string
	MIME string
}

// DetectHead classifies the leading bytes of a file as one of the image
// formats the product tree accepts.
func DetectHead(head []byte) (Result, error) {
	switch {
	case isJPEG(head):
		return Result{Ext: "jpg", MIME: "image/jpeg"}, nil
	case isPNG(head):
		return Result{Ext: "png", MIME: "image/png"}, nil
	case isGIF(head):
		return Result{Ext: "gif", MIME: "image/gif"}, nil
	case isWEBP(head):
		return Result{Ext: "webp", MIME: "image/webp"}, nil
	}
	return Result{}, ErrUnknownType
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

func isGIF(head []byte) bool {
	return len(head) >= 6 && (bytes.Equal(head[:6], []byte("GIF87a")) || bytes.Equal(head[:6], []byte("GIF89a")))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}
