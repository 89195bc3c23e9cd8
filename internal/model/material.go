package model

import (
	"fmt"
	"image"
	"net/url"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"gltf-renderer/internal/texture"
)

// material converts and memoizes a glTF material.
func (l *loader) material(idx int) *Material {
	if m, ok := l.materials[idx]; ok {
		return m
	}
	m := DefaultMaterial()
	if idx < 0 || idx >= len(l.doc.Materials) {
		l.warnf("material %d out of range", idx)
		l.materials[idx] = m
		return m
	}

	src := l.doc.Materials[idx]
	m.Name = src.Name
	m.DoubleSided = src.DoubleSided
	m.AlphaCutoff = src.AlphaCutoffOrDefault()
	switch src.AlphaMode {
	case gltf.AlphaMask:
		m.AlphaMode = AlphaMask
	case gltf.AlphaBlend:
		m.AlphaMode = AlphaBlend
	}

	if pbr := src.PBRMetallicRoughness; pbr != nil {
		m.BaseColor = pbr.BaseColorFactorOrDefault()
		if pbr.BaseColorTexture != nil {
			img, err := l.texture(pbr.BaseColorTexture.Index)
			if err != nil {
				l.warnf("material %q base color texture: %v", src.Name, err)
			} else {
				m.Texture = img
			}
		}
	}

	l.materials[idx] = m
	return m
}

// texture resolves a glTF texture index to its decoded source image.
func (l *loader) texture(idx int) (*image.NRGBA, error) {
	if idx < 0 || idx >= len(l.doc.Textures) {
		return nil, fmt.Errorf("texture %d out of range", idx)
	}
	t := l.doc.Textures[idx]
	if t.Source == nil {
		return nil, fmt.Errorf("texture %d has no source image", idx)
	}
	return l.image(*t.Source)
}

func (l *loader) image(idx int) (*image.NRGBA, error) {
	if r, ok := l.images[idx]; ok {
		return r.img, r.err
	}
	img, err := l.readImage(idx)
	l.images[idx] = &imageResult{img: img, err: err}
	return img, err
}

func (l *loader) readImage(idx int) (*image.NRGBA, error) {
	if idx < 0 || idx >= len(l.doc.Images) {
		return nil, fmt.Errorf("image %d out of range", idx)
	}
	src := l.doc.Images[idx]

	switch {
	case src.BufferView != nil:
		if *src.BufferView >= len(l.doc.BufferViews) {
			return nil, fmt.Errorf("image %d: buffer view %d out of range", idx, *src.BufferView)
		}
		data, err := modeler.ReadBufferView(l.doc, l.doc.BufferViews[*src.BufferView])
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", idx, err)
		}
		return texture.Decode(data)
	case src.IsEmbeddedResource():
		data, err := src.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", idx, err)
		}
		return texture.Decode(data)
	case src.URI != "":
		path, err := l.resolveURI(src.URI)
		if err != nil {
			return nil, err
		}
		return l.textures.Resolve(path)
	}
	return nil, fmt.Errorf("image %d has neither data nor uri", idx)
}

// resolveURI maps a relative image URI to a file next to the model, falling
// back to a case-insensitive search of the model directory.
func (l *loader) resolveURI(uri string) (string, error) {
	rel, err := url.PathUnescape(uri)
	if err != nil {
		rel = uri
	}
	path := filepath.Join(l.dir, filepath.FromSlash(rel))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if l.index == nil {
		l.index = texture.BuildIndex(l.dir)
	}
	if p, ok := l.index.ResolvePath(rel); ok {
		return p, nil
	}
	return "", fmt.Errorf("image %q not found next to model", uri)
}
