package builder

import (
	"bytes"
	"fmt"
	"text/template"
)

// skeletonData feeds the static project files.
type skeletonData struct {
	Project string
	Apps    []string
	Media   bool
	Static  bool
}

const manageTemplate = `#!/usr/bin/env python
"""Django's command-line utility for administrative tasks."""
import os
import sys


def main():
    os.environ.setdefault("DJANGO_SETTINGS_MODULE", "{{.Project}}.settings")
    from django.core.management import execute_from_command_line

    execute_from_command_line(sys.argv)


if __name__ == "__main__":
    main()
`

const wsgiTemplate = `import os

from django.core.wsgi import get_wsgi_application

os.environ.setdefault("DJANGO_SETTINGS_MODULE", "{{.Project}}.settings")

application = get_wsgi_application()
`

const asgiTemplate = `import os

from django.core.asgi import get_asgi_application

os.environ.setdefault("DJANGO_SETTINGS_MODULE", "{{.Project}}.settings")

application = get_asgi_application()
`

const settingsTemplate = `from pathlib import Path

BASE_DIR = Path(__file__).resolve().parent.parent

SECRET_KEY = "change-me"

DEBUG = True

ALLOWED_HOSTS = []

INSTALLED_APPS = [
    "django.contrib.admin",
    "django.contrib.auth",
    "django.contrib.contenttypes",
    "django.contrib.sessions",
    "django.contrib.messages",
    "django.contrib.staticfiles",
{{- range .Apps}}
    "{{.}}",
{{- end}}
]

MIDDLEWARE = [
    "django.middleware.security.SecurityMiddleware",
    "django.contrib.sessions.middleware.SessionMiddleware",
    "django.middleware.common.CommonMiddleware",
    "django.middleware.csrf.CsrfViewMiddleware",
    "django.contrib.auth.middleware.AuthenticationMiddleware",
    "django.contrib.messages.middleware.MessageMiddleware",
    "django.middleware.clickjacking.XFrameOptionsMiddleware",
]

ROOT_URLCONF = "{{.Project}}.urls"

TEMPLATES = [
    {
        "BACKEND": "django.template.backends.django.DjangoTemplates",
        "DIRS": [BASE_DIR / "templates"],
        "APP_DIRS": True,
        "OPTIONS": {
            "context_processors": [
                "django.template.context_processors.request",
                "django.contrib.auth.context_processors.auth",
                "django.contrib.messages.context_processors.messages",
            ],
        },
    },
]

WSGI_APPLICATION = "{{.Project}}.wsgi.application"

DATABASES = {
    "default": {
        "ENGINE": "django.db.backends.sqlite3",
        "NAME": BASE_DIR / "db.sqlite3",
    }
}

LANGUAGE_CODE = "en-us"
TIME_ZONE = "UTC"
USE_I18N = True
USE_TZ = True

STATIC_URL = "static/"
{{- if .Static}}
STATIC_ROOT = BASE_DIR / "staticfiles"
{{- end}}
{{- if .Media}}

MEDIA_URL = "media/"
MEDIA_ROOT = BASE_DIR / "media"
{{- end}}

DEFAULT_AUTO_FIELD = "django.db.models.BigAutoField"
`

const urlsTemplate = `from django.contrib import admin
from django.urls import include, path
{{- if .Media}}
from django.conf import settings
from django.conf.urls.static import static
{{- end}}

urlpatterns = [
    path("admin/", admin.site.urls),
{{- range .Apps}}
    path("{{.}}/", include("{{.}}.urls")),
{{- end}}
]
{{- if .Media}}

if settings.DEBUG:
    urlpatterns += static(settings.MEDIA_URL, document_root=settings.MEDIA_ROOT)
{{- end}}
`

const appConfigTemplate = `from django.apps import AppConfig


class {{.Class}}Config(AppConfig):
    default_auto_field = "django.db.models.BigAutoField"
    name = "{{.Name}}"
`

var skeletons = template.Must(template.New("manage.py").Parse(manageTemplate))

func init() {
	template.Must(skeletons.New("wsgi.py").Parse(wsgiTemplate))
	template.Must(skeletons.New("asgi.py").Parse(asgiTemplate))
	template.Must(skeletons.New("settings.py").Parse(settingsTemplate))
	template.Must(skeletons.New("urls.py").Parse(urlsTemplate))
	template.Must(skeletons.New("apps.py").Parse(appConfigTemplate))
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := skeletons.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
