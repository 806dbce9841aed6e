package inject

import (
	"os"
	"strconv"
	"time"

	"github.com/sony/sonyflake"

	"github.com/titpetric/ocpbootstrap/internal/log"
)

// Sonyflake produces a sonyflake ID generator dependency
func Sonyflake() *sonyflake.Sonyflake {
	var serverID uint16
	if val, err := strconv.ParseInt(os.Getenv("SERVER_ID"), 10, 16); err == nil {
		serverID = uint16(val)
	}
	if serverID > 0 {
		return sonyflake.NewSonyflake(sonyflake.Settings{
			MachineID: func() (uint16, error) {
				return serverID, nil
			},
		})
	}
	return sonyflake.NewSonyflake(sonyflake.Settings{})
}

// RunID identifies one bootstrap run in the migration history. Without a
// usable sonyflake, for example on hosts without a private address and no
// SERVER_ID, the id falls back to the current time in nanoseconds.
func RunID(flake *sonyflake.Sonyflake) string {
	if flake != nil {
		id, err := flake.NextID()
		if err == nil {
			return strconv.FormatUint(id, 10)
		}
		log.Warningf("can't generate run id: %v", err)
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
