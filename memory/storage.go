// Package memory provides the backing store shared by the behavioral device
// models.
package memory

import "errors"

// A Storage keeps the data of a simulated memory array.
//
// The storage implementation manages the data in units. For the units that
// are not touched by Read and Write, no memory is allocated.
type Storage struct {
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity
func NewStorage(capacity uint64) *Storage {
	storage := new(Storage)

	storage.unitSize = 4096
	storage.capacity = capacity
	storage.data = make(map[uint64][]byte)

	return storage
}

// Capacity returns the number of bytes the storage can hold.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) createOrGetStorageUnit(address uint64) ([]byte, error) {
	if address >= s.capacity {
		return nil, errors.New("accessing address beyond the storage capacity")
	}

	baseAddr, _ := s.parseAddress(address)
	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit, nil
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return
}

// Read returns a copy of the n bytes starting at the given address.
func (s *Storage) Read(address uint64, n uint64) ([]byte, error) {
	res := make([]byte, n)

	for offset := uint64(0); offset < n; {
		currAddr := address + offset
		unit, err := s.createOrGetStorageUnit(currAddr)
		if err != nil {
			return nil, err
		}

		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		lenToRead := baseAddr + s.unitSize - currAddr
		if n-offset < lenToRead {
			lenToRead = n - offset
		}

		copy(res[offset:offset+lenToRead],
			unit[inUnitAddr:inUnitAddr+lenToRead])
		offset += lenToRead
	}

	return res, nil
}

// Write stores the given bytes starting at the given address.
func (s *Storage) Write(address uint64, data []byte) error {
	for offset := uint64(0); offset < uint64(len(data)); {
		currAddr := address + offset
		unit, err := s.createOrGetStorageUnit(currAddr)
		if err != nil {
			return err
		}

		_, inUnitAddr := s.parseAddress(currAddr)
		lenToWrite := s.unitSize - inUnitAddr
		if uint64(len(data))-offset < lenToWrite {
			lenToWrite = uint64(len(data)) - offset
		}

		copy(unit[inUnitAddr:inUnitAddr+lenToWrite],
			data[offset:offset+lenToWrite])
		offset += lenToWrite
	}

	return nil
}

// WriteMasked stores the bytes for which the corresponding enable bit is set.
// Bit i of enable guards data[i]. Disabled byte positions keep their previous
// content.
func (s *Storage) WriteMasked(address uint64, data []byte, enable uint8) error {
	for i, b := range data {
		if enable&(1<<uint(i)) == 0 {
			continue
		}

		err := s.Write(address+uint64(i), []byte{b})
		if err != nil {
			return err
		}
	}

	return nil
}
