package globals

// JwtSecret is set from config at startup, before any route is served.
var JwtSecret []byte

// Context keys
type ContextKey string

const RoleKey ContextKey = "role"
const UserIDKey ContextKey = "userId"
