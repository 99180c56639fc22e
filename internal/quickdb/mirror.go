package quickdb

import (
	"github.com/illarion/quickdb/internal/ssr"
)

// AuthKey is where MirrorAuth keeps the signed-in user
const AuthKey = "auth"

// MirrorAuth copies props.user of the page data into inst under AuthKey,
// or removes AuthKey when the page has no user.
func MirrorAuth(inst *Instance, data *ssr.Data) error {
	user := data.Get("user", nil)
	if user == nil {
		if err := inst.DeleteKey(AuthKey); err != nil {
			return err
		}
		inst.Log("Auth cleared from page data", LevelInfo)
		return nil
	}

	if err := inst.Set(AuthKey, user); err != nil {
		return err
	}
	inst.Log("Auth synced from page data", LevelInfo)
	return nil
}
