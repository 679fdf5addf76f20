/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cache

// Map is the caching contract used across the settlement SDK.
type Map[K comparable, V any] interface {
	Get(K) (V, bool)
	Put(K, V)
	Delete(...K)
	Len() int
}

type rwLock interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

type noLock struct{}

func (l *noLock) Lock()    {}
func (l *noLock) Unlock()  {}
func (l *noLock) RLock()   {}
func (l *noLock) RUnlock() {}
