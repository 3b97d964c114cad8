package voting

import (
	"fmt"
	"io"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"

	"github.com/topi314/clubagenda/internal/xio"
)

// URL returns the public voting page of a meeting.
func URL(publicURL string, meetingNumber int) string {
	return fmt.Sprintf("%s/voting?meeting_number=%d", publicURL, meetingNumber)
}

// WriteQRCode renders a PNG QR code of the voting page of a meeting.
func WriteQRCode(w io.Writer, publicURL string, meetingNumber int) error {
	qr, err := qrcode.New(URL(publicURL, meetingNumber))
	if err != nil {
		return fmt.Errorf("failed to create qrcode: %w", err)
	}

	qrW := standard.NewWithWriter(xio.NewFlushCloser(w),
		standard.WithBgTransparent(),
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
	)
	defer func() {
		_ = qrW.Close()
	}()

	if err = qr.Save(qrW); err != nil {
		return fmt.Errorf("failed to save qrcode: %w", err)
	}
	return nil
}
