package kotlin

import "sync"

// System service names
// Matches: Context.TELEPHONY_SERVICE
const (
	TELEPHONY_SERVICE = "phone"
)

// Permission check results
// Matches: PackageManager.PERMISSION_GRANTED / PERMISSION_DENIED
const (
	PERMISSION_GRANTED = 0
	PERMISSION_DENIED  = -1
)

// Manifest permissions used by the telephony APIs
const (
	ACCESS_FINE_LOCATION = "android.permission.ACCESS_FINE_LOCATION"
)

// Build.VERSION_CODES used by the telephony APIs
const (
	VERSION_CODES_P = 28
	VERSION_CODES_Q = 29 // CellInfoNr added
)

// Context matches the slice of Android's Context the telephony stack needs:
// the running SDK level, runtime permission grants and system services.
type Context struct {
	sdkInt      int
	mu          sync.RWMutex
	permissions map[string]bool
	telephony   *TelephonyManager
}

// NewContext creates an application context on a device running sdkInt.
// No runtime permissions are granted until GrantPermission is called.
func NewContext(sdkInt int) *Context {
	c := &Context{
		sdkInt:      sdkInt,
		permissions: make(map[string]bool),
	}
	c.telephony = newTelephonyManager(c)
	return c
}

// SdkInt returns Build.VERSION.SDK_INT for this device
func (c *Context) SdkInt() int {
	return c.sdkInt
}

// GrantPermission simulates the user accepting a runtime permission prompt
func (c *Context) GrantPermission(permission string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.permissions[permission] = true
}

// RevokePermission simulates the user revoking a permission from system settings
func (c *Context) RevokePermission(permission string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.permissions, permission)
}

// CheckSelfPermission matches: ContextCompat.checkSelfPermission(context, permission)
func (c *Context) CheckSelfPermission(permission string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.permissions[permission] {
		return PERMISSION_GRANTED
	}
	return PERMISSION_DENIED
}

// GetSystemService matches: context.getSystemService(name)
// Returns nil for services the simulator does not provide.
func (c *Context) GetSystemService(name string) interface{} {
	switch name {
	case TELEPHONY_SERVICE:
		return c.telephony
	default:
		return nil
	}
}

// GetTelephonyManager is the typed shortcut for GetSystemService(TELEPHONY_SERVICE)
func (c *Context) GetTelephonyManager() *TelephonyManager {
	return c.telephony
}
