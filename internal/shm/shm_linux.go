//go:build linux

package shm

import (
	"golang.org/x/sys/unix"

	"github.com/tphakala/audiopipe/internal/errors"
)

// Create allocates a new shared-memory segment of the given size backed by
// an anonymous memfd.
func Create(name string, size int) (*Segment, error) {
	if size <= 0 {
		return nil, errors.Newf("invalid segment size %d", size).
			Component("shm").
			Category(errors.CategoryValidation).
			Context("name", name).
			Build()
	}

	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC)
	if err != nil {
		return nil, errors.New(err).
			Component("shm").
			Category(errors.CategorySharedMemory).
			Context("operation", "memfd_create").
			Context("name", name).
			Build()
	}

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		return nil, errors.New(err).
			Component("shm").
			Category(errors.CategorySharedMemory).
			Context("operation", "ftruncate").
			Context("size", size).
			Build()
	}

	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, errors.New(err).
			Component("shm").
			Category(errors.CategorySharedMemory).
			Context("operation", "mmap").
			Context("size", size).
			Build()
	}

	return &Segment{name: name, fd: fd, mem: mem}, nil
}

// Attach maps an existing segment from its descriptor, as a consumer
// process would after receiving the descriptor. The descriptor's fd is
// duplicated, so the attached segment owns its own descriptor and Close
// on either side never touches the other's fd.
func Attach(desc Descriptor) (*Segment, error) {
	if desc.FD < 0 || desc.Size <= 0 {
		return nil, errors.Newf("descriptor not mappable: fd=%d size=%d", desc.FD, desc.Size).
			Component("shm").
			Category(errors.CategoryValidation).
			Build()
	}

	fd, err := unix.FcntlInt(uintptr(desc.FD), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, errors.New(err).
			Component("shm").
			Category(errors.CategorySharedMemory).
			Context("operation", "dup").
			Context("name", desc.Name).
			Build()
	}

	mem, err := unix.Mmap(fd, 0, desc.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, errors.New(err).
			Component("shm").
			Category(errors.CategorySharedMemory).
			Context("operation", "mmap").
			Context("name", desc.Name).
			Build()
	}

	return &Segment{name: desc.Name, fd: fd, mem: mem}, nil
}

// Close unmaps the region and closes the backing fd. The region is freed
// by the kernel when the last mapping and fd are gone.
func (s *Segment) Close() error {
	if s.mem == nil {
		return nil
	}
	err := unix.Munmap(s.mem)
	s.mem = nil
	if s.fd >= 0 {
		if cerr := unix.Close(s.fd); err == nil {
			err = cerr
		}
		s.fd = -1
	}
	if err != nil {
		return errors.New(err).
			Component("shm").
			Category(errors.CategorySharedMemory).
			Context("operation", "close").
			Context("name", s.name).
			Build()
	}
	return nil
}
