package redisstore

import (
	"fmt"
	"time"
)

const (
	// caps:{profile_id} -> {"admin":bool,"writer":bool}
	keyCapabilities = "caps:%s"

	// revoked:{jti} -> "1" until the token expires
	keyRevoked = "revoked:%s"

	// checkout:approval:{gateway_order_id} -> decision, also the pub/sub channel name
	keyApproval = "checkout:approval:%s"

	// checkout:session:{gateway_order_id} -> snapshot JSON
	keyCheckout = "checkout:session:%s"
)

var (
	TTLApproval = time.Hour
	TTLCheckout = 24 * time.Hour
)

func key(format, id string) string {
	return fmt.Sprintf(format, id)
}
