package ids

import (
	"errors"
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

func GetMachineId() int64 {
	if val, ok := os.LookupEnv("MACHINE_ID"); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return 0
}

var sfnode *snowflake.Node
var sfLock = &sync.Mutex{}

func makeSnowflake() (*snowflake.Node, error) {
	sfLock.Lock()
	defer sfLock.Unlock()
	if sfnode != nil {
		return sfnode, nil
	}
	node, err := snowflake.NewNode(GetMachineId())
	if err != nil {
		return nil, err
	}
	sfnode = node
	return sfnode, nil
}

func SetMachineId(id int64) error {
	if err := os.Setenv("MACHINE_ID", strconv.FormatInt(id, 10)); err != nil {
		return err
	}
	sfLock.Lock()
	sfnode = nil
	sfLock.Unlock()
	if GetMachineId() != id {
		return errors.New("unexpected error setting machine ID")
	}
	if _, err := makeSnowflake(); err != nil {
		return err
	}
	return nil
}

// NewToken returns a short process-unique token, suitable for suffixing output file names.
func NewToken() (string, error) {
	node, err := makeSnowflake()
	if err != nil {
		return "", err
	}
	return node.Generate().Base36(), nil
}

// NewBatchId is NewToken for batch identifiers in logs.
func NewBatchId() string {
	t, err := NewToken()
	if err != nil {
		return "unknown"
	}
	return t
}
