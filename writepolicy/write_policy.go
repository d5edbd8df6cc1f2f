package writepolicy

import "context"

/*
This file defines what a "write policy" is: how a cache write that already
landed in the memory tier is propagated to the persistent tier.
*/

/*
WritePolicy is the contract that all write policies must follow.
The cache does not care which policy is used. It hands over the encoded
record and reports whatever error comes back.
*/
type WritePolicy interface {

	/*
		Write persists an encoded record under the namespaced key.
	*/
	Write(ctx context.Context, key, record string) error
}

// RecoverFunc frees persistent tier space after a quota failure.
type RecoverFunc func(ctx context.Context)
