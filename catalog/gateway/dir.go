package gateway

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"

	"github.com/mrasu/egholdings/catalog/errs"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const maxFileNameLength = 200

// Dir replays responses stored as one file per request key.
type Dir struct {
	dir string
}

func NewDir(dir string) (*Dir, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("Directory not found: %s", dir)
		}
		return nil, errors.Wrap(err, fmt.Sprintf("Invalid directory: %s", dir))
	}

	return &Dir{dir: dir}, nil
}

func (d *Dir) Fetch(_ context.Context, req Request) ([]byte, error) {
	bs, err := ioutil.ReadFile(d.fileName(req))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.TransportFailure(req.Key(), errors.Errorf("no recorded response: %s", d.fileName(req)))
		}
		return nil, errs.TransportFailure(req.Key(), errors.Wrap(err, "failed to read file"))
	}
	return bs, nil
}

func (d *Dir) Write(req Request, bs []byte) error {
	err := ioutil.WriteFile(d.fileName(req), bs, 0600)
	if err != nil {
		return errors.Wrap(err, "failed to write file")
	}
	return nil
}

func (d *Dir) fileName(req Request) string {
	name := url.QueryEscape(req.Key())
	if len(name) > maxFileNameLength {
		sum := sha1.Sum([]byte(req.Key()))
		name = hex.EncodeToString(sum[:])
	}
	return filepath.Join(d.dir, name)
}

// Recorder passes fetches through to another transport and stores every
// successful response in a Dir, so a session can be replayed later.
type Recorder struct {
	transport Transport
	dir       *Dir
}

func NewRecorder(transport Transport, dir *Dir) *Recorder {
	return &Recorder{transport: transport, dir: dir}
}

func (r *Recorder) Fetch(ctx context.Context, req Request) ([]byte, error) {
	bs, err := r.transport.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := r.dir.Write(req, bs); err != nil {
		log.Warn().Err(err).Str("request", req.Key()).Msg("failed to record response")
	}
	return bs, nil
}
