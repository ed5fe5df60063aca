package formats

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/swxlab/swx-data-apps/internal/container"
)

// LoadNetCDF reads a NetCDF3 or NetCDF4/HDF5 file into a container.
// Groups, variables and attributes map one to one; multi-dimensional
// values are flattened with their shape preserved on the Array. The
// file handle is released on every path out.
func LoadNetCDF(path string) (*container.Container, error) {
	g, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", container.ErrFormat, filepath.Base(path), err)
	}
	defer g.Close()

	c := container.New()
	_ = c.SetMetadata("", "source_file", filepath.Base(path))
	_ = c.SetMetadata("", "format", "netcdf")

	if err := copyGroup(g, c, ""); err != nil {
		return nil, err
	}
	return c, nil
}

func copyGroup(g api.Group, c *container.Container, prefix string) error {
	attrs := g.Attributes()
	for _, key := range attrs.Keys() {
		if val, has := attrs.Get(key); has {
			if err := c.SetMetadata(prefix, key, val); err != nil {
				return err
			}
		}
	}

	for _, name := range g.ListVariables() {
		v, err := g.GetVariable(name)
		if err != nil {
			return fmt.Errorf("%w: variable %q: %v", container.ErrFormat, joinPath(prefix, name), err)
		}

		arr, err := flatten(v.Values)
		if err != nil {
			return fmt.Errorf("%w: variable %q: %v", container.ErrFormat, joinPath(prefix, name), err)
		}

		meta := map[string]any{}
		if len(v.Dimensions) > 0 {
			meta["dimensions"] = strings.Join(v.Dimensions, ",")
		}
		vattrs := v.Attributes
		for _, key := range vattrs.Keys() {
			if val, has := vattrs.Get(key); has {
				meta[key] = val
			}
		}

		if _, err := c.SetVariable(joinPath(prefix, name), arr, meta); err != nil {
			return err
		}
	}

	for _, name := range g.ListSubgroups() {
		sub, err := g.GetGroup(name)
		if err != nil {
			return fmt.Errorf("%w: group %q: %v", container.ErrFormat, joinPath(prefix, name), err)
		}

		subPath := joinPath(prefix, name)
		if _, err := c.CreateGroup(subPath); err != nil {
			sub.Close()
			return err
		}
		err = copyGroup(sub, c, subPath)
		sub.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// flatten turns a NetCDF value (scalar, slice, or nested slices) into
// a flat Array with shape. The element type is whatever the file
// declared.
func flatten(values any) (container.Array, error) {
	if values == nil {
		return container.Array{}, fmt.Errorf("nil values")
	}

	rv := reflect.ValueOf(values)

	// Scalars become length-1 arrays.
	if rv.Kind() != reflect.Slice {
		rv = scalarSlice(rv)
	}

	shape := []int{}
	for v := rv; v.Kind() == reflect.Slice; {
		shape = append(shape, v.Len())
		if v.Type().Elem().Kind() != reflect.Slice {
			break
		}
		if v.Len() == 0 {
			return container.Array{}, fmt.Errorf("empty outer dimension")
		}
		v = v.Index(0)
	}

	elem := rv.Type()
	for elem.Kind() == reflect.Slice {
		elem = elem.Elem()
	}

	total := 1
	for _, d := range shape {
		total *= d
	}

	flat := reflect.MakeSlice(reflect.SliceOf(elem), 0, total)
	flat = appendLeaves(flat, rv)
	if flat.Len() != total {
		return container.Array{}, fmt.Errorf("ragged array: %d values, shape %v", flat.Len(), shape)
	}

	return container.NewArray(flat.Interface(), shape...)
}

func appendLeaves(dst, v reflect.Value) reflect.Value {
	if v.Kind() != reflect.Slice {
		return reflect.Append(dst, v)
	}
	if v.Type().Elem().Kind() != reflect.Slice {
		return reflect.AppendSlice(dst, v)
	}
	for i := 0; i < v.Len(); i++ {
		dst = appendLeaves(dst, v.Index(i))
	}
	return dst
}

func scalarSlice(rv reflect.Value) reflect.Value {
	s := reflect.MakeSlice(reflect.SliceOf(rv.Type()), 1, 1)
	s.Index(0).Set(rv)
	return s
}
